package config

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/mosaicnetworks/synapse/src/color"
	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/mosaicnetworks/synapse/src/render"
	"github.com/sirupsen/logrus"
)

// Attribute names.
const (
	ColorAttr       = "color"
	NodesAttr       = "nodes"
	SpeedScaleAttr  = "speed-scale"
	TracerScaleAttr = "tracer-scale"
)

// MaxNetworkSize bounds the nodes attribute.
const MaxNetworkSize = 1000

var (
	leadingInt   = regexp.MustCompile(`^\s*[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// Attributes are the parameters of the effect as supplied by the user.
type Attributes struct {
	Color       string `mapstructure:"color"`
	Nodes       string `mapstructure:"nodes"`
	SpeedScale  string `mapstructure:"speed-scale"`
	TracerScale string `mapstructure:"tracer-scale"`
}

// Settings are validated Attributes.
type Settings struct {
	Color       render.Color
	NetworkSize int
	SpeedScale  float64
	TracerScale float64
}

// DefaultSettings returns the settings used when no attribute is given.
func DefaultSettings() Settings {
	return Settings{
		Color:       render.Color{},
		NetworkSize: DefaultNetworkSize,
		SpeedScale:  DefaultSpeedScale,
		TracerScale: DefaultTracerScale,
	}
}

// AttributesFromMap decodes a name => value map into Attributes. Unknown names
// are rejected.
func AttributesFromMap(values map[string]string) (Attributes, error) {
	var attrs Attributes

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &attrs,
	})
	if err != nil {
		return attrs, err
	}

	if err := decoder.Decode(values); err != nil {
		return attrs, err
	}

	return attrs, nil
}

// ParseAttributes turns Attributes into Settings. A missing attribute takes its
// default silently; an invalid one takes its default with a warning.
func ParseAttributes(attrs Attributes, logger *logrus.Entry) Settings {
	settings := DefaultSettings()

	if c, err := ParseColor(attrs.Color); err != nil {
		warn(logger, err, "couldn't parse color, setting fallback color")
	} else if attrs.Color != "" {
		settings.Color = c
	}

	if n, err := ParseNetworkSize(attrs.Nodes); err != nil {
		warn(logger, err, "node count must be an integer greater than 1")
	} else if attrs.Nodes != "" {
		settings.NetworkSize = n
	}

	if s, err := ParseScale(SpeedScaleAttr, attrs.SpeedScale); err != nil {
		warn(logger, err, "speed scalar must be a number greater than 0")
	} else if attrs.SpeedScale != "" {
		settings.SpeedScale = s
	}

	if s, err := ParseScale(TracerScaleAttr, attrs.TracerScale); err != nil {
		warn(logger, err, "tracer size scalar must be a number greater than 0")
	} else if attrs.TracerScale != "" {
		settings.TracerScale = s
	}

	return settings
}

func warn(logger *logrus.Entry, err error, msg string) {
	if logger == nil {
		return
	}
	field := ""
	if cErr, ok := err.(common.ConfigErr); ok {
		field = cErr.Field()
	}
	logger.WithError(err).WithField("attribute", field).Warn(msg)
}

// ParseColor resolves a color attribute. The empty string yields the default
// color.
func ParseColor(value string) (render.Color, error) {
	if value == "" {
		return render.Color{}, nil
	}
	c, err := color.Resolve(value)
	if err != nil {
		return render.Color{}, common.NewConfigErr(ColorAttr, common.InvalidValue, value)
	}
	return c, nil
}

// ParseNetworkSize reads the leading integer of a nodes attribute, so "7px"
// is 7 and "2.9" is 2. The empty string yields the default size. Sizes outside
// [2, MaxNetworkSize] are invalid.
func ParseNetworkSize(value string) (int, error) {
	if value == "" {
		return DefaultNetworkSize, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(leadingInt.FindString(value)))
	if err != nil || n < 2 || n > MaxNetworkSize {
		return DefaultNetworkSize, common.NewConfigErr(NodesAttr, common.InvalidValue, value)
	}
	return n, nil
}

// ParseScale reads the leading number of a scale attribute, which must be
// greater than zero. The empty string yields 1.
func ParseScale(name string, value string) (float64, error) {
	if value == "" {
		return 1, nil
	}
	s, err := strconv.ParseFloat(strings.TrimSpace(leadingFloat.FindString(value)), 64)
	if err != nil || s <= 0 {
		return 1, common.NewConfigErr(name, common.InvalidValue, value)
	}
	return s, nil
}

// Update returns a copy of s in which every non-empty attribute replaces the
// corresponding setting. Unlike ParseAttributes it does not fall back to
// defaults: the first invalid attribute is returned as an error and s is left
// as is.
func (s Settings) Update(attrs Attributes) (Settings, error) {
	res := s

	if attrs.Color != "" {
		c, err := ParseColor(attrs.Color)
		if err != nil {
			return s, err
		}
		res.Color = c
	}

	if attrs.Nodes != "" {
		n, err := ParseNetworkSize(attrs.Nodes)
		if err != nil {
			return s, err
		}
		res.NetworkSize = n
	}

	if attrs.SpeedScale != "" {
		v, err := ParseScale(SpeedScaleAttr, attrs.SpeedScale)
		if err != nil {
			return s, err
		}
		res.SpeedScale = v
	}

	if attrs.TracerScale != "" {
		v, err := ParseScale(TracerScaleAttr, attrs.TracerScale)
		if err != nil {
			return s, err
		}
		res.TracerScale = v
	}

	return res, nil
}
