package mercadopago

import "strings"

// Generic fallback shown when the decline code is not mapped.
const GenericDeclineMessage = "Não foi possível processar o pagamento. Verifique os dados e tente novamente."

// declineMessages maps gateway status_detail codes to user-facing messages.
var declineMessages = map[string]string{
	"cc_rejected_bad_filled_card_number":   "Número do cartão inválido. Confira e tente novamente.",
	"cc_rejected_bad_filled_date":          "Data de validade incorreta. Confira e tente novamente.",
	"cc_rejected_bad_filled_security_code": "Código de segurança incorreto. Confira e tente novamente.",
	"cc_rejected_bad_filled_other":         "Dados do cartão incorretos. Confira e tente novamente.",
	"cc_rejected_insufficient_amount":      "Saldo insuficiente no cartão.",
	"cc_rejected_high_risk":                "Pagamento recusado por segurança. Tente outro meio de pagamento.",
	"cc_rejected_call_for_authorize":       "Pagamento não autorizado. Entre em contato com a operadora do cartão.",
	"cc_rejected_card_disabled":            "Cartão desabilitado. Entre em contato com a operadora.",
	"cc_rejected_duplicated_payment":       "Pagamento duplicado. Aguarde alguns minutos antes de tentar novamente.",
	"cc_rejected_max_attempts":             "Limite de tentativas atingido. Tente novamente mais tarde.",
	"cc_rejected_other_reason":             "Pagamento recusado pela operadora do cartão.",
}

// DeclineMessage returns the localized message for a gateway status_detail
// code, falling back to a generic message for unmapped codes.
func DeclineMessage(statusDetail string) string {
	if msg, ok := declineMessages[strings.ToLower(strings.TrimSpace(statusDetail))]; ok {
		return msg
	}
	return GenericDeclineMessage
}
