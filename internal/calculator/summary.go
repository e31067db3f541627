package calculator

import "TokenChart/internal/model"

// Summarize derives the headline statistics of a series.
// With an empty series the optional last-known price is reported instead;
// without one every field is zero.
func Summarize(series []model.Bucket, lastKnown *model.PricePoint) model.Summary {
	if len(series) == 0 {
		if lastKnown == nil {
			return model.Summary{}
		}
		p := lastKnown.Price
		return model.Summary{
			LastPrice:   p,
			FirstPrice:  p,
			High:        p,
			Low:         p,
			AvgPrice:    p,
			IsLastKnown: true,
		}
	}

	s := model.Summary{
		FirstPrice: series[0].Close,
		LastPrice:  series[len(series)-1].Close,
	}
	for _, b := range series {
		s.TotalVolume += b.Volume
		s.TotalTrades += b.TradeCount
	}
	s.PriceChange = s.LastPrice - s.FirstPrice
	s.PriceChangePercent = ChangePercent(s.FirstPrice, s.LastPrice)

	// series is non-empty so neither call can fail
	s.High, s.Low, _ = CloseRange(series)
	s.AvgPrice, _ = AverageClose(series)
	return s
}
