package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"networth/internal/core"
)

// CalculationSavedMessage announces a stored net worth calculation. It
// carries the totals so consumers never need to read the store back.
type CalculationSavedMessage struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId,omitempty"`
	Currency         string    `json:"currency"`
	TotalAssets      float64   `json:"totalAssets"`
	TotalLiabilities float64   `json:"totalLiabilities"`
	NetWorth         float64   `json:"netWorth"`
	DebtToAssetRatio int       `json:"debtToAssetRatio"`
	CreatedAt        time.Time `json:"createdAt"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewCalculationSavedMessage builds the event for c.
func NewCalculationSavedMessage(c core.NetWorthCalculation) *CalculationSavedMessage {
	return &CalculationSavedMessage{
		ID:               c.ID,
		UserID:           c.UserID,
		Currency:         string(c.Currency),
		TotalAssets:      c.TotalAssets,
		TotalLiabilities: c.TotalLiabilities,
		NetWorth:         c.NetWorth,
		DebtToAssetRatio: c.DebtToAssetRatio(),
		CreatedAt:        c.CreatedAt,
		Timestamp:        time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *CalculationSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CalculationSavedMessageFromJSON decodes a message and rejects one
// without an id.
func CalculationSavedMessageFromJSON(data []byte) (*CalculationSavedMessage, error) {
	var msg CalculationSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("message without calculation id")
	}
	return &msg, nil
}
