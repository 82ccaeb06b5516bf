package entity

// Boardroom is a bookable meeting room.
type Boardroom struct {
	Base
	Name      string   `db:"name"`
	Location  string   `db:"location"`
	Capacity  int      `db:"capacity"`
	Amenities []string `db:"amenities"`
	IsActive  bool     `db:"is_active"`
}
