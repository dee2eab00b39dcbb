package checkout

import (
	"strconv"
	"strings"
)

// Wilayas are the 48 provinces served, in official code order. Index i holds
// the province with code i+1.
var Wilayas = [48]string{
	"أدرار", "الشلف", "الأغواط", "أم البواقي", "باتنة", "بجاية", "بسكرة", "بشار", "البليدة", "البويرة",
	"تمنراست", "تبسة", "تلمسان", "تيارت", "تيزي وزو", "الجزائر", "الجلفة", "جيجل", "سطيف", "سعيدة",
	"سكيكدة", "سيدي بلعباس", "عنابة", "قالمة", "قسنطينة", "المدية", "مستغانم", "المسيلة", "معسكر", "ورقلة",
	"وهران", "البيض", "إيليزي", "برج بوعريريج", "بومرداس", "الطارف", "تندوف", "تيسمسيلت", "الوادي", "خنشلة",
	"سوق أهراس", "تيبازة", "ميلة", "عين الدفلى", "النعامة", "عين تموشنت", "غرداية", "غليزان",
}

// LookupWilaya resolves a province by name or by its numeric code ("16" or
// "16 - الجزائر") and returns the canonical name.
func LookupWilaya(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, w := range Wilayas {
		if w == s {
			return w, true
		}
	}
	code, _, _ := strings.Cut(s, " ")
	n, err := strconv.Atoi(code)
	if err != nil || n < 1 || n > len(Wilayas) {
		return "", false
	}
	return Wilayas[n-1], true
}
