package snapshot

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// document mirrors the parts of a MultiCellDS snapshot this package reads.
type document struct {
	XMLName  xml.Name `xml:"MultiCellDS"`
	Metadata struct {
		CurrentTime struct {
			Units string `xml:"units,attr"`
			Value string `xml:",chardata"`
		} `xml:"current_time"`
	} `xml:"metadata"`
	Microenvironment struct {
		Domain struct {
			Mesh struct {
				BoundingBox string `xml:"bounding_box"`
				XCoords     string `xml:"x_coordinates"`
				YCoords     string `xml:"y_coordinates"`
				ZCoords     string `xml:"z_coordinates"`
			} `xml:"mesh"`
			Variables []struct {
				Name  string `xml:"name,attr"`
				Units string `xml:"units,attr"`
				ID    int    `xml:"ID,attr"`
			} `xml:"variables>variable"`
			Data struct {
				Filename string `xml:"filename"`
			} `xml:"data"`
		} `xml:"domain"`
	} `xml:"microenvironment"`
	Populations []struct {
		Type       string `xml:"type,attr"`
		Simplified struct {
			Labels []struct {
				Index int    `xml:"index,attr"`
				Size  int    `xml:"size,attr"`
				Units string `xml:"units,attr"`
				Name  string `xml:",chardata"`
			} `xml:"labels>label"`
			Filename string `xml:"filename"`
		} `xml:"custom>simplified_data"`
	} `xml:"cellular_information>cell_populations>cell_population"`
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// expandLabels turns sized labels into one column name per matrix row.
// Size 3 labels gain _x/_y/_z suffixes, other multi-row labels a numeric one.
func expandLabels(labels []Label) []string {
	var names []string
	for _, l := range labels {
		switch {
		case l.Size <= 1:
			names = append(names, l.Name)
		case l.Size == 3:
			names = append(names, l.Name+"_x", l.Name+"_y", l.Name+"_z")
		default:
			for i := 0; i < l.Size; i++ {
				names = append(names, fmt.Sprintf("%s_%d", l.Name, i))
			}
		}
	}
	return names
}
