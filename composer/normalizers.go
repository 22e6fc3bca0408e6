package composer

import (
	"regexp"
	"strings"

	"github.com/reoring/manifestnorm"
)

// UnorderedLists point at the arrays whose element order carries no
// meaning, so a reordering there is not a content change.
var UnorderedLists = []string{"/bin"}

// NewBinNormalizer sorts the bin list. A single bin given as a string is
// left alone.
func NewBinNormalizer() *manifestnorm.PropertyNormalizer {
	return manifestnorm.NewPropertyNormalizer("bin", manifestnorm.SortArrayElements, manifestnorm.AcceptScalar())
}

// ConfigHashProperties are the properties whose keys are sorted by
// NewConfigHashNormalizer.
var ConfigHashProperties = []string{"config", "scripts-descriptions"}

// NewConfigHashNormalizer sorts the keys of config and scripts-descriptions.
func NewConfigHashNormalizer() *manifestnorm.Chain {
	return propertyChain(ConfigHashProperties)
}

// PackageLinkProperties map package names to constraints or descriptions.
var PackageLinkProperties = []string{"require", "require-dev", "conflict", "provide", "replace", "suggest"}

// NewPackageHashNormalizer orders package links the way composer does with
// sort-packages enabled: platform packages first, then everything else.
func NewPackageHashNormalizer() *manifestnorm.Chain {
	return propertyChain(PackageLinkProperties, manifestnorm.WithCompare(ComparePackages))
}

func propertyChain(props []string, opts ...manifestnorm.PropertyOption) *manifestnorm.Chain {
	ns := make([]manifestnorm.Normalizer, 0, len(props))
	for _, p := range props {
		ns = append(ns, manifestnorm.NewPropertyNormalizer(p, manifestnorm.SortObjectKeys, opts...))
	}
	return manifestnorm.NewChain(ns[0], ns[1:]...)
}

var platformPackage = regexp.MustCompile(`(?i)^(?:php(?:-64bit|-ipv6|-zts|-debug)?|hhvm|(?:ext|lib)-[a-z0-9](?:[_.-]?[a-z0-9]+)*|composer-(?:plugin|runtime)-api)$`)

// ComparePackages orders package names: php and its variants, hhvm, ext-*,
// lib-*, other platform packages, then regular packages. Names within a
// group compare bytewise.
func ComparePackages(a, b string) int {
	if c := group(a) - group(b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func group(name string) int {
	if !platformPackage.MatchString(name) {
		return 5
	}
	// Platform detection ignores case, the group prefixes do not.
	switch {
	case strings.HasPrefix(name, "php"):
		return 0
	case strings.HasPrefix(name, "hhvm"):
		return 1
	case strings.HasPrefix(name, "ext"):
		return 2
	case strings.HasPrefix(name, "lib"):
		return 3
	default:
		return 4
	}
}
