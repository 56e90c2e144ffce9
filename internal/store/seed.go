// internal/store/seed.go
package store

// defaultSchedules are installed on first run so a fresh board shows
// something useful without any configuration.
var defaultSchedules = []Schedule{
	{Name: "Morning Weather", Type: TypeWeather, CronExpr: "0 7 * * *", Enabled: true},
	{Name: "Market Open", Type: TypeStocks, CronExpr: "30 9 * * 1-5", Enabled: true},
	// Disabled until a calendar URL is configured.
	{Name: "Daily Calendar", Type: TypeCalendar, CronExpr: "0 8 * * *", Enabled: false},
	{Name: "Good Morning", Type: TypeText, Content: "Good Morning!", CronExpr: "0 6 * * *", Enabled: true},
	{Name: "Good Night", Type: TypeText, Content: "Good Night!", CronExpr: "0 22 * * *", Enabled: true},
}

// SeedDefaults inserts the default schedules when the schedule table is
// empty. Returns the names of schedules added.
func (s *Store) SeedDefaults() ([]string, error) {
	existing, err := s.Schedules(false)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	var added []string
	for _, sched := range defaultSchedules {
		sched := sched
		if _, err := s.SaveSchedule(&sched); err != nil {
			return added, err
		}
		added = append(added, sched.Name)
	}
	return added, nil
}
