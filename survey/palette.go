package survey

// Agreement-scale labels keep fixed colors so charts read the same across surveys.
var agreementColors = map[string]string{
	"Sangat Tidak Setuju": "#ef4444",
	"Tidak Setuju":        "#f97316",
	"Netral":              "#eab308",
	"Setuju":              "#60a5fa",
	"Sangat Setuju":       "#10b981",
}

var dynamicColors = [...]string{
	"#1abc9c",
	"#3498db",
	"#9b59b6",
	"#f39c12",
	"#e74c3c",
	"#2ecc71",
	"#e67e22",
	"#16a085",
	"#2980b9",
	"#8e44ad",
}

// ChartColor picks the chart color for an option label. Labels outside the
// agreement scale get a palette entry chosen by the sum of their code points.
func ChartColor(label string) string {
	if c, ok := agreementColors[label]; ok {
		return c
	}
	sum := 0
	for _, r := range label {
		sum += int(r)
	}
	return dynamicColors[sum%len(dynamicColors)]
}
