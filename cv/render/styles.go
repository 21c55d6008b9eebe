package render

// RunStyle captures inline run formatting.
type RunStyle struct {
	Bold   bool
	Italic bool
	Size   int
	Color  string
}

const (
	HeadingColor   = "1F2937"
	NameColor      = "111111"
	HeadingSize    = 24
	SubheadingSize = 22
	NameSize       = 32
	BodySize       = 20
)

// StyleMap centralizes the formatting for key CV elements.
var StyleMap = map[string]RunStyle{
	"name": {
		Bold:  true,
		Size:  NameSize,
		Color: NameColor,
	},
	"sectionHeading": {
		Bold:  true,
		Size:  HeadingSize,
		Color: HeadingColor,
	},
	"subHeading": {
		Bold: true,
		Size: SubheadingSize,
	},
	"meta": {
		Italic: true,
	},
	"body": {},
}
