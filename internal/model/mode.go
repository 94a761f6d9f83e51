package model

// Processing modes. The numeric aliases match the /mode/:n upload pages.
const (
	ModeProofread = "proofread"
	ModeTranslate = "translate"
	ModeOCR       = "ocr"
)

// Modes lists every processing mode, in menu order.
var Modes = []string{ModeProofread, ModeTranslate, ModeOCR}

var modeByNumber = map[string]string{
	"1": ModeProofread,
	"2": ModeTranslate,
	"3": ModeOCR,
}

func ModeFromNumber(n string) (string, bool) {
	mode, ok := modeByNumber[n]
	return mode, ok
}

func ValidMode(mode string) bool {
	switch mode {
	case ModeProofread, ModeTranslate, ModeOCR:
		return true
	}
	return false
}
