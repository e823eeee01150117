package layout

// Thresholds hold the tunable tier boundaries. The item capacities are
// calibrated for the default two-page target and scale linearly with the
// requested page count. They are heuristic constants carried in config so
// they can be retuned without code changes.
type Thresholds struct {
    SparseMaxItems  int     // items fitting the sparse tier across BaselinePages
    NormalMaxItems  int
    CompactMaxItems int
    BaselinePages   int     // page count the capacities are calibrated for
    VerbosityCutoff float64 // avg chars per item forcing stacked options at compact
}

// DefaultThresholds mirrors the calibrated 15/30/50 capacities and the
// 50-character verbosity cutoff.
func DefaultThresholds() Thresholds {
    return Thresholds{
        SparseMaxItems:  15,
        NormalMaxItems:  30,
        CompactMaxItems: 50,
        BaselinePages:   2,
        VerbosityCutoff: 50,
    }
}

// Classifier maps aggregate content volume to a discrete layout tier.
type Classifier struct {
    th Thresholds
}

// NewClassifier builds a classifier; zero or negative threshold fields fall
// back to the defaults, preserving sparse < normal < compact ordering.
func NewClassifier(th Thresholds) *Classifier {
    def := DefaultThresholds()
    if th.SparseMaxItems <= 0 { th.SparseMaxItems = def.SparseMaxItems }
    if th.NormalMaxItems <= th.SparseMaxItems { th.NormalMaxItems = def.NormalMaxItems }
    if th.CompactMaxItems <= th.NormalMaxItems { th.CompactMaxItems = def.CompactMaxItems }
    if th.BaselinePages <= 0 { th.BaselinePages = def.BaselinePages }
    if th.VerbosityCutoff <= 0 { th.VerbosityCutoff = def.VerbosityCutoff }
    return &Classifier{th: th}
}

// Classify selects a tier from item count, average item weight and target
// page count. It never fails: zero items yield the sparse tier and an
// average weight of zero, and counts past the compact capacity land on the
// ultra-compact density floor rather than erroring.
func (c *Classifier) Classify(itemCount int, avgWeight float64, targetPages int) Tier {
    if itemCount <= 0 {
        itemCount = 0
        avgWeight = 0
    }
    if targetPages < 1 {
        targetPages = 1
    }

    scale := float64(targetPages) / float64(c.th.BaselinePages)
    n := float64(itemCount)

    var level DensityLevel
    switch {
    case n <= float64(c.th.SparseMaxItems)*scale:
        level = DensitySparse
    case n <= float64(c.th.NormalMaxItems)*scale:
        level = DensityNormal
    case n <= float64(c.th.CompactMaxItems)*scale:
        level = DensityCompact
    default:
        level = DensityUltraCompact
    }

    tier := tierParams(level)

    // Option arrangement: stacked at low densities, inline once space gets
    // tight. At compact density long options make inline flow unreadable,
    // so verbosity forces stacked; at the ultra-compact floor space wins
    // and inline is always used.
    switch level {
    case DensityCompact:
        if avgWeight > c.th.VerbosityCutoff {
            tier.Arrangement = ArrangeStackedTwoColumn
        } else {
            tier.Arrangement = ArrangeInlineFlow
        }
    case DensityUltraCompact:
        tier.Arrangement = ArrangeInlineFlow
    default:
        tier.Arrangement = ArrangeStackedTwoColumn
    }

    return tier
}

// tierParams returns the fixed visual parameters per density level.
// Values are monotonic: font size, line height and spacing never increase
// as density grows.
func tierParams(level DensityLevel) Tier {
    switch level {
    case DensitySparse:
        return Tier{Level: level, FontSizePt: 12, LineHeightRatio: 1.6, InterItemSpacingPt: 14}
    case DensityNormal:
        return Tier{Level: level, FontSizePt: 11, LineHeightRatio: 1.45, InterItemSpacingPt: 10}
    case DensityCompact:
        return Tier{Level: level, FontSizePt: 9.5, LineHeightRatio: 1.3, InterItemSpacingPt: 6}
    default:
        return Tier{Level: DensityUltraCompact, FontSizePt: 8, LineHeightRatio: 1.15, InterItemSpacingPt: 3}
    }
}
