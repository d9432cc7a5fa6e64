package gtfs

// ActiveServiceIDs resolves which service IDs run on the snapshot's
// service date. A weekly rule matches when its weekday flag is set and
// the date falls inside [StartDate, EndDate]. Exceptions then adjust
// the set row by row in table order, so whichever row comes last for a
// service decides.
//
// Feeds without usable calendars yield an empty set; callers fall back
// to the working set's own service IDs so planning still works.
func (idx *ScheduleIndex) ActiveServiceIDs(snap Snapshot) map[string]bool {
	active := make(map[string]bool)

	for _, rule := range idx.Rules {
		if !rule.Weekdays[snap.Weekday] {
			continue
		}
		if rule.StartDate != "" && snap.ServiceDate < rule.StartDate {
			continue
		}
		if rule.EndDate != "" && snap.ServiceDate > rule.EndDate {
			continue
		}
		active[rule.ServiceID] = true
	}

	for _, exception := range idx.Exceptions {
		if exception.Date != snap.ServiceDate {
			continue
		}
		switch exception.ExceptionType {
		case ExceptionAdded:
			active[exception.ServiceID] = true
		case ExceptionRemoved:
			delete(active, exception.ServiceID)
		}
	}

	if len(active) == 0 {
		for tripID := range idx.FilteredTrips {
			if trip, ok := idx.TripsByID[tripID]; ok && trip.ServiceID != "" {
				active[trip.ServiceID] = true
			}
		}
	}

	return active
}

// ActiveTripIDs returns the trips whose service runs on the snapshot's
// date. Trips without a service ID are always considered active.
func (idx *ScheduleIndex) ActiveTripIDs(snap Snapshot) map[string]bool {
	services := idx.ActiveServiceIDs(snap)

	active := make(map[string]bool, len(idx.TripsByID))
	for tripID, trip := range idx.TripsByID {
		if trip.ServiceID == "" || services[trip.ServiceID] {
			active[tripID] = true
		}
	}
	return active
}
