package httphandlers

type ConfigResponse struct {
	Version string
	Config  interface{}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type Resource struct {
	Self string
}

// requests, amounts are integers in base units

type FromReq struct {
	From string `json:"from" binding:"required,eth_addr"`
}

type ValueReq struct {
	From  string `json:"from"  binding:"required,eth_addr"`
	Value string `json:"value" binding:"omitempty,number"`
}

type CreateListingReq struct {
	From        string `json:"from"        binding:"required,eth_addr"`
	StrikePrice string `json:"strikePrice" binding:"required,number"`
	Expiration  int64  `json:"expiration"  binding:"required,gt=0"`
	Premium     string `json:"premium"     binding:"required,number"`
	Collateral  string `json:"collateral"  binding:"required,number"`
}

type ApproveReq struct {
	From    string `json:"from"    binding:"required,eth_addr"`
	Spender string `json:"spender" binding:"required,eth_addr"`
	Amount  string `json:"amount"  binding:"required,number"`
}

type MintReq struct {
	To     string `json:"to"     binding:"required,eth_addr"`
	Amount string `json:"amount" binding:"required,number"`
}

type SetPriceReq struct {
	Price string `json:"price" binding:"required,number"`
}

type AdvanceTimeReq struct {
	Duration string `json:"duration" binding:"required"`
}

// responses

type Listing struct {
	ID              int
	Seller          string
	ContractAddress string
	Sold            bool
	Option          *Option
}

type Option struct {
	Resource

	Address         string
	Seller          string
	Buyer           *string
	Broker          *string
	PaymentToken    *string
	StrikePrice     string
	ExercisePayment string
	Premium         string
	Collateral      string
	CollateralEth   string
	Expiration      string
	CreatedAt       string
	SoldAt          *string
	Status          string
	IsExpired       bool
	Settlement      *Settlement
}

type Settlement struct {
	Kind         string
	Price        string
	BuyerPayout  string
	SellerPayout string
	SettledAt    string
}

type TxResponse struct {
	TxHash  string
	Block   uint64
	Time    string
	Address *string `json:",omitempty"`
	Events  []Event
}

type Event struct {
	Block    uint64
	TxHash   string
	Contract string
	Name     string
	Data     map[string]string
	Time     string
}

type Account struct {
	Resource

	Index         *int `json:",omitempty"`
	Address       string
	NativeBalance string
	NativeEth     string
	TokenBalance  string
	TokenSymbol   string
	TokenAmount   string
}

type ChainInfo struct {
	Block       uint64
	Time        string
	Marketplace string
	Token       string
	Listings    int
}
