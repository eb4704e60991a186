package runners

import (
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"ultrafantasi/internal/models"
)

// ClaimPolicy decides whether a non-admin user may claim a runner profile.
type ClaimPolicy interface {
	Name() string
	Eligible(u *models.User, r *models.Runner) bool
}

// NameSimilarity accepts claims whose user name is close to the runner's full name,
// measured with the Sørensen-Dice coefficient over letter bigrams.
type NameSimilarity struct {
	Threshold float64
}

func (NameSimilarity) Name() string { return "name-similarity" }

func (p NameSimilarity) Eligible(u *models.User, r *models.Runner) bool {
	name := u.Name
	if name == "" && u.Nickname != nil {
		name = *u.Nickname
	}
	return Similarity(name, r.FullName()) >= p.Threshold
}

// Similarity returns the bigram Sørensen-Dice coefficient of a and b, ignoring case
// and whitespace.
func Similarity(a, b string) float64 {
	a, b = compact(a), compact(b)
	if a == "" || b == "" {
		return 0
	}
	return strutil.Similarity(a, b, &metrics.SorensenDice{CaseSensitive: false, NgramSize: 2})
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Open lets any user claim any unclaimed runner.
type Open struct{}

func (Open) Name() string                               { return "open" }
func (Open) Eligible(*models.User, *models.Runner) bool { return true }

func NewClaimPolicy(name string) (ClaimPolicy, error) {
	switch name {
	case "", "name-similarity":
		return NameSimilarity{Threshold: 0.5}, nil
	case "open":
		return Open{}, nil
	default:
		return nil, fmt.Errorf("unknown claim policy: %s", name)
	}
}
