package layout

// DensityLevel orders layout tiers by increasing information density.
type DensityLevel int

const (
    DensitySparse DensityLevel = iota
    DensityNormal
    DensityCompact
    DensityUltraCompact
)

func (d DensityLevel) String() string {
    switch d {
    case DensitySparse:
        return "sparse"
    case DensityNormal:
        return "normal"
    case DensityCompact:
        return "compact"
    case DensityUltraCompact:
        return "ultra-compact"
    }
    return "unknown"
}

// OptionArrangement selects how answer options are laid out inside a
// question block.
type OptionArrangement string

const (
    ArrangeStackedTwoColumn OptionArrangement = "stacked-two-column"
    ArrangeInlineFlow       OptionArrangement = "inline-flow"
)

// Tier is the value object carrying all visual parameters for one render
// call. It is computed once per render and threaded explicitly into the
// assembler; there is no shared layout state. As Level increases,
// FontSizePt, LineHeightRatio and InterItemSpacingPt never increase.
type Tier struct {
    Level              DensityLevel
    FontSizePt         float64
    LineHeightRatio    float64
    InterItemSpacingPt float64
    Arrangement        OptionArrangement
}
