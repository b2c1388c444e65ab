package model

// DefaultDataURL is the listing page used when --dataUrl is not given
const DefaultDataURL = "http://fnndsc.childrens.harvard.edu/COVID-Net/data/"

// Link is an absolute URL to one archive file, resolved from an anchor on a
// listing page. Resolution is plain string concatenation, so a Link is not
// guaranteed to be a normalized URL.
type Link string

// String returns the link as a plain string
func (l Link) String() string {
	return string(l)
}

// IsArchive reports whether the link points to a .tar.gz archive
func (l Link) IsArchive() bool {
	return IsArchiveName(string(l))
}
