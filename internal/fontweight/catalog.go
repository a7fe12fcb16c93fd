package fontweight

import (
	"slices"
	"strings"
)

// Catalog answers whether a font family offers a weight. It is reference
// data only: the converter passes family strings through unchanged and uses
// a Catalog to produce warnings.
type Catalog interface {
	Supports(family string, weight int) bool
}

// Table is a Catalog backed by a map of lower-cased family name to weights.
type Table map[string][]int

func (t Table) Supports(family string, weight int) bool {
	weights, ok := t[strings.ToLower(strings.TrimSpace(family))]
	if !ok {
		return false
	}
	return slices.Contains(weights, weight)
}

var allWeights = []int{100, 200, 300, 400, 500, 600, 700, 800, 900}

// KnownFamilies lists families Docs offers in its font menu together with
// the weights it exposes for them. The Google Fonts set changes over time,
// so treat misses as advisory.
var KnownFamilies = Table{
	"arial":            {400, 700},
	"courier new":      {400, 700},
	"georgia":          {400, 700},
	"times new roman":  {400, 700},
	"trebuchet ms":     {400, 700},
	"verdana":          {400, 700},
	"comic sans ms":    {400, 700},
	"impact":           {400},
	"roboto":           {100, 300, 400, 500, 700, 900},
	"roboto mono":      {100, 200, 300, 400, 500, 600, 700},
	"open sans":        {300, 400, 500, 600, 700, 800},
	"lato":             {100, 300, 400, 700, 900},
	"montserrat":       allWeights,
	"inter":            allWeights,
	"source code pro":  {200, 300, 400, 500, 600, 700, 800, 900},
	"merriweather":     {300, 400, 700, 900},
	"playfair display": {400, 500, 600, 700, 800, 900},
	"raleway":          allWeights,
	"oswald":           {200, 300, 400, 500, 600, 700},
	"poppins":          allWeights,
}
