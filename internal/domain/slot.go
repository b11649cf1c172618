package domain

// Slot is one of the fixed three-hour visit bands, keyed by its start time.
type Slot string

const (
	SlotMorning   Slot = "09:00"
	SlotAfternoon Slot = "12:00"
	SlotEvening   Slot = "15:00"
)

// SlotBand describes the hour range covered by a slot.
type SlotBand struct {
	Slot      Slot
	StartHour int
	EndHour   int
	Label     string
}

// SlotBands lists the bands in chronological order.
var SlotBands = []SlotBand{
	{Slot: SlotMorning, StartHour: 9, EndHour: 12, Label: "Morning (9 AM – 12 PM)"},
	{Slot: SlotAfternoon, StartHour: 12, EndHour: 15, Label: "Afternoon (12 PM – 3 PM)"},
	{Slot: SlotEvening, StartHour: 15, EndHour: 18, Label: "Evening (3 PM – 6 PM)"},
}

// BandOf returns the band a slot value names.
func BandOf(slot Slot) (SlotBand, bool) {
	for _, band := range SlotBands {
		if band.Slot == slot {
			return band, true
		}
	}
	return SlotBand{}, false
}

// BandForHour returns the band containing the given hour of day.
func BandForHour(hour int) (SlotBand, bool) {
	for _, band := range SlotBands {
		if hour >= band.StartHour && hour < band.EndHour {
			return band, true
		}
	}
	return SlotBand{}, false
}
