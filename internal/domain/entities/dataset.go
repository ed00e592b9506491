package entities

// Dataset is the raw collection of entities supplied by a repository.
// It carries no guarantees until turned into a Snapshot.
type Dataset struct {
	Tenders   []Tender   `json:"tenders"`
	Companies []Company  `json:"companies"`
	Directors []Director `json:"directors"`
	Officials []Official `json:"officials"`
	Bids      []Bid      `json:"bids"`
}

// Size returns the total number of entities in the dataset.
func (d *Dataset) Size() int {
	return len(d.Tenders) + len(d.Companies) + len(d.Directors) + len(d.Officials) + len(d.Bids)
}
