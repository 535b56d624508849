// Package color resolves CSS color strings into the normalized sRGB
// coordinates consumed by the effect.
package color

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mosaicnetworks/synapse/src/render"
	"golang.org/x/image/colornames"
)

// keywords supplements the SVG color names with the CSS ones they lack.
var keywords = map[string]string{
	"rebeccapurple": "#663399",
}

// Resolve parses a CSS <color> in one of the supported notations: hex, named
// keyword, rgb(), hsl(), hwb(), lab(), lch(), oklab() or oklch(). The result is
// mapped into the sRGB gamut.
func Resolve(value string) (render.Color, error) {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return render.Color{}, fmt.Errorf("empty color")
	}

	if rgba, ok := colornames.Map[s]; ok {
		return render.Color{
			R: float64(rgba.R) / 255,
			G: float64(rgba.G) / 255,
			B: float64(rgba.B) / 255,
		}, nil
	}
	if hex, ok := keywords[s]; ok {
		s = hex
	}

	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return render.Color{}, fmt.Errorf("invalid hex color %q: %v", value, err)
		}
		return fromColorful(c), nil
	}

	open := strings.Index(s, "(")
	if open < 0 || !strings.HasSuffix(s, ")") {
		return render.Color{}, fmt.Errorf("unrecognized color %q", value)
	}

	fn := strings.TrimSpace(s[:open])
	args, err := parseArgs(s[open+1 : len(s)-1])
	if err != nil {
		return render.Color{}, fmt.Errorf("invalid color %q: %v", value, err)
	}
	// a trailing alpha channel is accepted and ignored
	if len(args) == 4 {
		args = args[:3]
	}
	if len(args) != 3 {
		return render.Color{}, fmt.Errorf("color %q needs 3 channels, got %d", value, len(args))
	}

	var c colorful.Color
	switch fn {
	case "rgb", "rgba":
		c = colorful.Color{
			R: args[0].scaled(255),
			G: args[1].scaled(255),
			B: args[2].scaled(255),
		}
	case "hsl", "hsla":
		c = colorful.Hsl(args[0].value, args[1].scaled(100), args[2].scaled(100))
	case "hwb":
		c = hwb(args[0].value, args[1].scaled(100), args[2].scaled(100))
	case "lab":
		c = colorful.LabWhiteRef(args[0].scaled(100), args[1].scaled(125)*1.25, args[2].scaled(125)*1.25, colorful.D50)
	case "lch":
		c = colorful.HclWhiteRef(args[2].value, args[1].scaled(150)*1.5, args[0].scaled(100), colorful.D50)
	case "oklab":
		c = colorful.OkLab(args[0].scaled(1), args[1].scaled(0.4)*0.4, args[2].scaled(0.4)*0.4)
	case "oklch":
		c = colorful.OkLch(args[0].scaled(1), args[1].scaled(0.4)*0.4, args[2].value)
	default:
		return render.Color{}, fmt.Errorf("unsupported color function %q", fn)
	}

	return fromColorful(c), nil
}

// hwb converts hue/whiteness/blackness through HSV.
func hwb(h, w, b float64) colorful.Color {
	if w+b >= 1 {
		gray := w / (w + b)
		return colorful.Color{R: gray, G: gray, B: gray}
	}
	v := 1 - b
	return colorful.Hsv(h, 1-w/v, v)
}

func fromColorful(c colorful.Color) render.Color {
	c = c.Clamped()
	return render.Color{R: c.R, G: c.G, B: c.B}
}

type channel struct {
	value   float64
	percent bool
}

// scaled maps the channel to [0,1] given the range of its plain number form.
// Percentages are already relative.
func (c channel) scaled(max float64) float64 {
	if c.percent {
		return c.value / 100
	}
	return c.value / max
}

func parseArgs(raw string) ([]channel, error) {
	raw = strings.NewReplacer(",", " ", "/", " ").Replace(raw)

	res := []channel{}
	for _, f := range strings.Fields(raw) {
		ch := channel{}
		switch {
		case strings.HasSuffix(f, "%"):
			ch.percent = true
			f = strings.TrimSuffix(f, "%")
		case strings.HasSuffix(f, "deg"):
			f = strings.TrimSuffix(f, "deg")
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		ch.value = v
		res = append(res, ch)
	}
	return res, nil
}
