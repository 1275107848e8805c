// Package i18n holds the fr/en message tables and the display formatting
// rules (French-grouped FCFA amounts). French is the default and fallback.
package i18n

import "strings"

var translations = map[string]map[string]string{
	"fr": {
		"required":            "Requis",
		"must_be_positive":    "Doit être positif",
		"exceeds_amount_due":  "Dépasse le montant restant dû",
		"out_of_range":        "Hors limites",
		"invalid_email":       "Email invalide",
		"invalid_value":       "Valeur invalide",
		"not_found":           "Introuvable",
		"unauthorized":        "Non autorisé",
		"validation_failed":   "Validation échouée",
		"persistence_error":   "Erreur d'enregistrement, veuillez réessayer",
		"pdf_generation_failed": "Échec de la génération du PDF",
		// statuts canoniques -> libellés
		"draft":        "Brouillon",
		"sent":         "Envoyé",
		"accepted":     "Accepté",
		"rejected":     "Refusé",
		"expired":      "Expiré",
		"paid":         "Payée",
		"overdue":      "En retard",
		"cancelled":    "Annulée",
		"deposit":      "Acompte",
		"intermediate": "Situation",
		"final":        "Facture finale",
		"credit_note":  "Avoir",
		"lead":         "Prospect",
		"active":       "Actif",
		"archived":     "Archivé",
		"transfer":     "Virement",
		"card":         "Carte",
		"cheque":       "Chèque",
		"cash":         "Espèces",
		"mobile_money": "Mobile money",
	},
	"en": {
		"required":            "Required",
		"must_be_positive":    "Must be positive",
		"exceeds_amount_due":  "Exceeds the remaining amount due",
		"out_of_range":        "Out of range",
		"invalid_email":       "Invalid email",
		"invalid_value":       "Invalid value",
		"not_found":           "Not found",
		"unauthorized":        "Unauthorized",
		"validation_failed":   "Validation failed",
		"persistence_error":   "Could not save, please retry",
		"pdf_generation_failed": "PDF generation failed",
		"draft":        "Draft",
		"sent":         "Sent",
		"accepted":     "Accepted",
		"rejected":     "Rejected",
		"expired":      "Expired",
		"paid":         "Paid",
		"overdue":      "Overdue",
		"cancelled":    "Cancelled",
		"deposit":      "Deposit",
		"intermediate": "Interim",
		"final":        "Final invoice",
		"credit_note":  "Credit note",
		"lead":         "Lead",
		"active":       "Active",
		"archived":     "Archived",
		"transfer":     "Bank transfer",
		"card":         "Card",
		"cheque":       "Cheque",
		"cash":         "Cash",
		"mobile_money": "Mobile money",
	},
}

// DetectLanguage picks "en" or "fr" from an Accept-Language header.
// French is the product default.
func DetectLanguage(acceptLanguage string) string {
	al := strings.ToLower(strings.TrimSpace(acceptLanguage))
	if strings.HasPrefix(al, "en") {
		return "en"
	}
	return "fr"
}

// T translates a message code. Unknown languages fall back to French;
// unknown codes fall back to the code itself.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := translations["fr"][code]; ok {
		return s
	}
	return code
}

// Label is T for canonical enum values (statuses, types, methods).
func Label(lang, value string) string { return T(lang, value) }

// Labels returns a copy of the whole table for one language, for clients
// that render enum values themselves.
func Labels(lang string) map[string]string {
	m, ok := translations[lang]
	if !ok {
		m = translations["fr"]
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
