package core

// DBOrdering is an ORDER BY term.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OldestFirst orders rows by their creation time, ascending.
var OldestFirst = DBOrdering{Field: "created_at", Ascending: true}
