package models

// Menu is a bookable service item offered by a staff member.
type Menu struct {
	Name            string `mapstructure:"name" json:"name"`
	DurationMinutes int    `mapstructure:"duration" json:"duration"`
}

// Staff is a practitioner working the event, backed by their own calendar.
type Staff struct {
	ID         string `mapstructure:"id" json:"id"`
	Name       string `mapstructure:"name" json:"name"`
	Service    string `mapstructure:"service" json:"service"`
	CalendarID string `mapstructure:"calendar_id" json:"-"`
	Menus      []Menu `mapstructure:"menus" json:"menus"`
}

// MenuByName returns the staff member's menu with the given name, or nil.
func (s *Staff) MenuByName(name string) *Menu {
	for i := range s.Menus {
		if s.Menus[i].Name == name {
			return &s.Menus[i]
		}
	}
	return nil
}
