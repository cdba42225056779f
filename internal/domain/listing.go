package domain

// Listing is the terminal result handed to the presentation sink. OK
// distinguishes "no results" from "could not fetch"; a listing is always
// terminated, never partial.
type Listing struct {
	Items       []*Item
	ContentKind string
	OK          bool
}

// Sink receives one finished listing per navigation request. The catalog
// never renders; it only produces data plus the success flag.
type Sink interface {
	Done(items []*Item, contentKind string, ok bool)
}
