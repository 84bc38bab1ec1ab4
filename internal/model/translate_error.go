package model

// TranslateError records a receipt that could not be translated.
type TranslateError struct {
	Line   int    `json:"line"`
	TxHash string `json:"tx_hash,omitempty"`
	Error  string `json:"error"`
}
