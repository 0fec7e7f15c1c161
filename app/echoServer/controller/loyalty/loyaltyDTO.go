package loyalty

// RedeemReq identifies the reward to redeem. The points cost is always
// looked up server side; a client-supplied cost is never accepted.
type RedeemReq struct {
	RewardID int64 `json:"reward_id" validate:"required,gt=0"`
}
