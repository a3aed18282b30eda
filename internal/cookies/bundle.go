package cookies

import (
	"sort"
)

// Bundle groups the auth cookies by normalized domain. Non-auth cookies are
// dropped. Bundles come back sorted by domain; cookies inside a bundle are
// deduplicated on (name, domain, path), first occurrence winning, and then
// ordered by (name, path).
func Bundle(classified []ClassifiedCookie) []SiteAuthBundle {
	byDomain := make(map[string][]ClassifiedCookie)
	seen := make(map[string]struct{})

	for _, c := range classified {
		if !c.IsAuth() {
			continue
		}
		domain := NormalizeDomain(c.Domain)
		if domain == "" {
			continue
		}
		key := c.Name + "\x00" + domain + "\x00" + c.Path
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		byDomain[domain] = append(byDomain[domain], c)
	}

	bundles := make([]SiteAuthBundle, 0, len(byDomain))
	for domain, list := range byDomain {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Name != list[j].Name {
				return list[i].Name < list[j].Name
			}
			return list[i].Path < list[j].Path
		})
		bundles = append(bundles, SiteAuthBundle{Domain: domain, Cookies: list})
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Domain < bundles[j].Domain })
	return bundles
}

// GroupBySite maps each normalized domain to the raw cookies set for it, in
// input order. Cookies without a usable domain are skipped.
func GroupBySite(raw []RawCookie) map[string][]RawCookie {
	out := make(map[string][]RawCookie)
	for _, c := range raw {
		domain := NormalizeDomain(c.Domain)
		if domain == "" {
			continue
		}
		out[domain] = append(out[domain], c)
	}
	return out
}

// CookieCount sums the cookies across bundles.
func CookieCount(bundles []SiteAuthBundle) int {
	n := 0
	for _, b := range bundles {
		n += len(b.Cookies)
	}
	return n
}
