package reservation

// 两个互相独立的开关，可以任意来回切换
type SaleState struct {
	Paused   bool `json:"paused"`
	Finished bool `json:"sale_finished"`
}
