package models

const (
	AssetStatusAvailable   = "available"
	AssetStatusBorrowed    = "borrowed"
	AssetStatusMaintenance = "maintenance"
	AssetStatusRetired     = "retired"
)

const (
	AssetCategoryIT = "it"
	AssetCategoryFM = "fm"
)

type Asset struct {
	ID             int    `json:"id" db:"id"`
	Code           string `json:"code" db:"code"`
	Name           string `json:"name" db:"name"`
	Category       string `json:"category" db:"category"`
	Condition      string `json:"condition" db:"condition"`
	Status         string `json:"status" db:"status"`
	StockTotal     int    `json:"stock_total" db:"stock_total"`
	StockAvailable int    `json:"stock_available" db:"stock_available"`
	QRPayload      string `json:"qr_payload,omitempty" db:"qr_payload"`
}

func (a *Asset) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.ID,
		ResourceType: "asset",
	}
}
