package marketdata

import "sort"

// sortSymbolsStable orders symbols by their SecurityIdentifier's string
// form. This is the "symbol hash" tie-break spec §4.4 and §4.7 require for
// deterministic replay across runs: identical inputs always produce the
// same iteration order.
func sortSymbolsStable(syms []Symbol) {
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].ID.String() < syms[j].ID.String()
	})
}

// SortSymbols exposes the stable symbol ordering to other packages that
// need the same deterministic tie-break (the transaction manager's
// cross-symbol evaluation order). The feed merger's heap compares the same
// ID.String() form directly rather than calling this.
func SortSymbols(syms []Symbol) {
	sortSymbolsStable(syms)
}
