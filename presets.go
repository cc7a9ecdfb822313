package xlsxturbo

import (
	"strconv"
	"strings"
)

// tableStyleName maps a preset ("Medium9", "None") to the package style name.
// "None" yields an unstyled table.
func tableStyleName(preset string) (string, error) {
	if preset == "None" {
		return "", nil
	}
	for _, family := range []struct {
		prefix string
		max    int
	}{{"Light", 21}, {"Medium", 28}, {"Dark", 11}} {
		rest, ok := strings.CutPrefix(preset, family.prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 1 && n <= family.max && strconv.Itoa(n) == rest {
			return "TableStyle" + preset, nil
		}
	}
	return "", configErr("table_style", preset, "unknown table_style. Valid styles: Light1-Light21, Medium1-Medium28, Dark1-Dark11, None")
}

var iconStyles = map[string]string{
	"3_arrows":                "3Arrows",
	"3arrows":                 "3Arrows",
	"3_arrows_gray":           "3ArrowsGray",
	"3arrowsgray":             "3ArrowsGray",
	"3_flags":                 "3Flags",
	"3flags":                  "3Flags",
	"3_traffic_lights":        "3TrafficLights1",
	"3trafficlights":          "3TrafficLights1",
	"traffic_lights":          "3TrafficLights1",
	"3_traffic_lights_rimmed": "3TrafficLights2",
	"3trafficlightsrimmed":    "3TrafficLights2",
	"3_signs":                 "3Signs",
	"3signs":                  "3Signs",
	"3_symbols":               "3Symbols",
	"3symbols":                "3Symbols",
	"3_symbols_uncircled":     "3Symbols2",
	"3symbolsuncircled":       "3Symbols2",
	"4_arrows":                "4Arrows",
	"4arrows":                 "4Arrows",
	"4_arrows_gray":           "4ArrowsGray",
	"4arrowsgray":             "4ArrowsGray",
	"4_rating":                "4Rating",
	"4rating":                 "4Rating",
	"4_traffic_lights":        "4TrafficLights",
	"4trafficlights":          "4TrafficLights",
	"5_arrows":                "5Arrows",
	"5arrows":                 "5Arrows",
	"5_arrows_gray":           "5ArrowsGray",
	"5arrowsgray":             "5ArrowsGray",
	"5_rating":                "5Rating",
	"5rating":                 "5Rating",
	"5_quarters":              "5Quarters",
	"5quarters":               "5Quarters",
}

func iconStyle(option, name string) (string, error) {
	if v, ok := iconStyles[strings.ToLower(name)]; ok {
		return v, nil
	}
	return "", configErr(option, name, "unknown icon_type. Valid types: 3_arrows, 3_arrows_gray, 3_flags, 3_traffic_lights, 3_traffic_lights_rimmed, 3_signs, 3_symbols, 3_symbols_uncircled, 4_arrows, 4_arrows_gray, 4_rating, 4_traffic_lights, 5_arrows, 5_arrows_gray, 5_quarters, 5_rating")
}

// CondFormatType is a conditional format rule family.
type CondFormatType string

const (
	TwoColorScale   CondFormatType = "2_color_scale"
	ThreeColorScale CondFormatType = "3_color_scale"
	DataBar         CondFormatType = "data_bar"
	IconSet         CondFormatType = "icon_set"
)

func parseCondFormatType(option, s string) (CondFormatType, error) {
	switch strings.ToLower(s) {
	case "2_color_scale", "2colorscale", "two_color_scale":
		return TwoColorScale, nil
	case "3_color_scale", "3colorscale", "three_color_scale":
		return ThreeColorScale, nil
	case "data_bar", "databar":
		return DataBar, nil
	case "icon_set", "iconset":
		return IconSet, nil
	}
	return "", configErr(option, s, "unknown conditional format type. Valid types: 2_color_scale, 3_color_scale, data_bar, icon_set")
}

func barDirection(option, s string) (string, error) {
	switch strings.ToLower(s) {
	case "left_to_right", "ltr":
		return "leftToRight", nil
	case "right_to_left", "rtl":
		return "rightToLeft", nil
	case "context", "":
		return "context", nil
	}
	return "", configErr(option, s, "unknown direction. Valid values: left_to_right, right_to_left, context")
}

// ValidationType is a data validation rule family.
type ValidationType string

const (
	ListValidation        ValidationType = "list"
	WholeNumberValidation ValidationType = "whole_number"
	DecimalValidation     ValidationType = "decimal"
	TextLengthValidation  ValidationType = "text_length"
)

func parseValidationType(option, s string) (ValidationType, error) {
	switch strings.ToLower(s) {
	case "list":
		return ListValidation, nil
	case "whole_number", "whole", "integer":
		return WholeNumberValidation, nil
	case "decimal", "number":
		return DecimalValidation, nil
	case "text_length", "textlength", "length":
		return TextLengthValidation, nil
	}
	return "", configErr(option, s, "unknown validation type. Valid types: list, whole_number, decimal, text_length")
}
