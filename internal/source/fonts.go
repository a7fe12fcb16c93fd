package source

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/gdocmark/internal/fontweight"
	"github.com/dgallion1/gdocmark/internal/mebdf"
	"google.golang.org/api/docs/v1"
)

// fontFace is what a font name says about family, weight and slant.
type fontFace struct {
	family string
	weight int
	bold   bool
	italic bool
}

// style suffixes in the order they must be checked; "semibold" before
// "bold", "extralight" before "light".
var weightNames = []struct {
	name   string
	weight int
}{
	{"extralight", 200},
	{"ultralight", 200},
	{"semibold", 600},
	{"demibold", 600},
	{"extrabold", 800},
	{"ultrabold", 800},
	{"bold", fontweight.Bold},
	{"black", 900},
	{"heavy", 900},
	{"medium", 500},
	{"light", 300},
	{"thin", 100},
}

// parseFontName reads names like "ABCDEF+Roboto-LightItalic",
// "Arial,BoldItalic" or "CourierNewPSMT". Plain bold is reported as the
// bold flag over the regular weight, as Docs stores it.
func parseFontName(name string) fontFace {
	if i := strings.IndexByte(name, '+'); i == 6 {
		name = name[i+1:]
	}
	family, style, _ := strings.Cut(name, "-")
	if f, s, ok := strings.Cut(family, ","); ok {
		family, style = f, s
	}
	for _, suffix := range []string{"PSMT", "MT", "PS"} {
		family = strings.TrimSuffix(family, suffix)
	}

	face := fontFace{family: splitCamel(family), weight: fontweight.Default}
	s := strings.ToLower(style)
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		face.italic = true
	}
	for _, w := range weightNames {
		if strings.Contains(s, w.name) {
			face.weight = w.weight
			break
		}
	}
	if face.weight == fontweight.Bold {
		face.weight = fontweight.Default
		face.bold = true
	}
	return face
}

// splitCamel turns "TimesNewRoman" into "Times New Roman".
func splitCamel(s string) string {
	var sb strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(rs[i-1]) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// hexColor parses "#rrggbb", "rrggbb", "#rgb" or a CSS basic color name.
func hexColor(s string) (*docs.OptionalColor, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 6 && !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	hex, ok := mebdf.ParseColor(s)
	if !ok {
		return nil, false
	}
	var c [3]float64
	for i := range c {
		v, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return nil, false
		}
		c[i] = float64(v) / 255
	}
	return &docs.OptionalColor{Color: &docs.Color{RgbColor: &docs.RgbColor{Red: c[0], Green: c[1], Blue: c[2]}}}, true
}

func isBlack(oc *docs.OptionalColor) bool {
	if oc == nil || oc.Color == nil {
		return false
	}
	rgb := oc.Color.RgbColor
	return rgb == nil || (rgb.Red == 0 && rgb.Green == 0 && rgb.Blue == 0)
}

// wordHighlights maps WordprocessingML highlight names to colors.
var wordHighlights = map[string]string{
	"yellow":      "#ffff00",
	"green":       "#00ff00",
	"cyan":        "#00ffff",
	"magenta":     "#ff00ff",
	"blue":        "#0000ff",
	"red":         "#ff0000",
	"darkBlue":    "#000080",
	"darkCyan":    "#008080",
	"darkGreen":   "#008000",
	"darkMagenta": "#800080",
	"darkRed":     "#800000",
	"darkYellow":  "#808000",
	"darkGray":    "#808080",
	"lightGray":   "#c0c0c0",
	"black":       "#000000",
	"white":       "#ffffff",
}
