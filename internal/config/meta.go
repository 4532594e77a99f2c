package config

// Meta holds tool identity shown in help and version output.
type Meta struct {
	ID        string
	Name      string
	Desc      string
	URL       string
	Author    string
	Version   string
	UserAgent string
}
