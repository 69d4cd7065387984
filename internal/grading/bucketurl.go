package grading

import "regexp"

// URLKind tags how a bucket URL was written in bucket.txt.
type URLKind int

const (
	URLNone URLKind = iota
	URLHTTPS
	URLGS
)

func (k URLKind) String() string {
	switch k {
	case URLHTTPS:
		return "https"
	case URLGS:
		return "gs"
	default:
		return "none"
	}
}

// BucketURL is the job output location found in bucket.txt. URL always ends
// with a slash so partition names can be appended.
type BucketURL struct {
	Kind URLKind
	URL  string
}

var (
	httpsOutputRe = regexp.MustCompile(`(https://\S*[fF]o[fF]\.output)`)
	gsOutputRe    = regexp.MustCompile(`(gs://\S*[fF]o[fF]\.output)`)
)

// MatchBucketURL looks for an https output URL first and a gs:// one second.
func MatchBucketURL(text string) BucketURL {
	if m := httpsOutputRe.FindStringSubmatch(text); m != nil {
		return BucketURL{Kind: URLHTTPS, URL: m[1] + "/"}
	}
	if m := gsOutputRe.FindStringSubmatch(text); m != nil {
		return BucketURL{Kind: URLGS, URL: m[1] + "/"}
	}
	return BucketURL{Kind: URLNone}
}
