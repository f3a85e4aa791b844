package order

// IsEligibleMatch reports whether sell may be matched against buy: sell must
// be an active sell order of the same type and exact amount, and the two
// price ranges must overlap (touching bounds count).
func IsEligibleMatch(buy, sell Order) bool {
	if !sell.IsActive || sell.IsBuyOrder {
		return false
	}
	if sell.OrderType != buy.OrderType {
		return false
	}
	if buy.Amount == nil || sell.Amount == nil || buy.Amount.Cmp(sell.Amount) != 0 {
		return false
	}
	return pricesOverlap(buy, sell)
}

func pricesOverlap(buy, sell Order) bool {
	if buy.MinPrice == nil || buy.MaxPrice == nil || sell.MinPrice == nil || sell.MaxPrice == nil {
		return false
	}
	return buy.MaxPrice.Cmp(sell.MinPrice) >= 0 && sell.MaxPrice.Cmp(buy.MinPrice) >= 0
}
