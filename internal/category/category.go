// Package category maps free-text category labels onto the fixed
// bookspointer taxonomy. The taxonomy is a closed, hand-curated table;
// unmatched labels fall through an ordered list of substring rules and
// finally to DefaultID.
package category

import "strings"

// DefaultID is returned when no table entry or fallback rule matches.
const DefaultID = 20

// IncompleteLabel marks books filed under the incomplete-book category.
// The publisher uses it as the series sentinel.
const IncompleteLabel = "অসম্পূর্ণ বই"

// entry pairs a canonical category label with its taxonomy id.
type entry struct {
	Label string
	ID    int
}

// rule routes labels containing Needle to ID. Rules are evaluated
// top-down; the first match wins.
type rule struct {
	Needle string
	ID     int
}

var table = []entry{
	{"ইতিহাস", 1},
	{"কৌতুক", 2},
	{"উপন্যাস", 3},
	{"থ্রিলার রহস্য রোমাঞ্চ অ্যাডভেঞ্চার", 4},
	{"গল্পগ্রন্থ", 5},
	{"ভ্রমণ কাহিনী", 6},
	{"বৈজ্ঞানিক কল্পকাহিনী", 9},
	{"ধর্ম ও দর্শন", 10},
	{"অসম্পূর্ণ বই", 11},
	{"কাব্যগ্রন্থ / কবিতা", 12},
	{"প্রবন্ধ ও গবেষণা", 13},
	{"কিশোর সাহিত্য", 14},
	{"আত্মজীবনী ও স্মৃতিকথা", 15},
	{"নাটক", 16},
	{"গোয়েন্দা", 18},
	{"ভৌতিক", 19},
}

// Fallback rule order is part of the contract: earlier rules shadow
// later ones when a joined label matches several needles.
var rules = []rule{
	{"ইতিহাস", 1},
	{"কৌতুক", 2},
	{"উপন্যাস", 3},
	{"থ্রিলার রহস্য রোমাঞ্চ অ্যাডভেঞ্চার", 4},
	{"গল্পগ্রন্থ", 5},
	{"গল্পের বই", 5},
	{"ভ্রমণ কাহিনী", 6},
	{"বৈজ্ঞানিক কল্পকাহিনী", 9},
	{"ধর্ম ও দর্শন", 10},
	{"ইসলামিক বই", 10},
	{"ধর্মীয় বই", 10},
	{"সংস্কৃত", 10},
	{"কাব্যগ্রন্থ / কবিতা", 12},
	{"প্রবন্ধ ও গবেষণা", 13},
	{"রচনা", 13},
	{"কিশোর সাহিত্য", 14},
	{"আত্মজীবনী ও স্মৃতিকথা", 15},
	{"আত্মউন্নয়নমূলক বই", 15},
	{"নাটক", 16},
	{"গোয়েন্দা", 18},
	{"ভৌতিক", 19},
	{"হরর", 19},
	{"ভূতের বই", 19},
	{"Editor's Choice", 5},
}

// Classify resolves an ordered label sequence to a taxonomy id.
// The labels are joined into a single key; an exact table match wins,
// otherwise the first substring rule that matches, otherwise DefaultID.
func Classify(labels []string) int {
	key := strings.Join(labels, " ")
	for _, e := range table {
		if e.Label == key {
			return e.ID
		}
	}
	for _, r := range rules {
		if strings.Contains(key, r.Needle) {
			return r.ID
		}
	}
	return DefaultID
}
