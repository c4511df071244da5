// Package dataset defines the appointment record model shared by the
// whole pipeline: the categorical enums for each extract field, the
// NA-aware appointment count, and the loader that unions per-region
// monthly extracts into one table.
//
// Every categorical field is an enumerated type parsed against the
// exact spellings used in the published extracts. Column addressing by
// literal string is deliberately impossible outside this package, so a
// spelling drift in an input file surfaces as a load error instead of
// an all-zero derived metric.
package dataset

import (
	"fmt"

	"github.com/markagreen/remote-GP-consultations/internal/period"
)

// RegionKey is an opaque administrative-area identifier (CCG/STP
// code). It is the sole linking key between appointment data and
// deprivation data.
type RegionKey string

// Status is the recorded outcome of a booked appointment.
type Status string

// Status values, spelled exactly as in the extracts.
const (
	StatusAttended Status = "Attended"
	StatusDNA      Status = "DNA"
	StatusUnknown  Status = "Unknown"
)

// Statuses lists all Status values in stable order.
func Statuses() []Status {
	return []Status{StatusAttended, StatusDNA, StatusUnknown}
}

// ParseStatus parses an extract cell into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAttended, StatusDNA, StatusUnknown:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Mode is the delivery mode of an appointment.
type Mode string

// Mode values, spelled exactly as in the extracts.
const (
	ModeFaceToFace  Mode = "Face-to-Face"
	ModeHomeVisit   Mode = "Home Visit"
	ModeTelephone   Mode = "Telephone"
	ModeVideoOnline Mode = "Video/Online"
	ModeUnknown     Mode = "Unknown"
)

// Modes lists all Mode values in stable order.
func Modes() []Mode {
	return []Mode{ModeFaceToFace, ModeHomeVisit, ModeTelephone, ModeVideoOnline, ModeUnknown}
}

// ParseMode parses an extract cell into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFaceToFace, ModeHomeVisit, ModeTelephone, ModeVideoOnline, ModeUnknown:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown appointment mode %q", s)
}

// IsRemote reports whether the mode is a remote consultation
// (telephone or video/online).
func (m Mode) IsRemote() bool {
	return m == ModeTelephone || m == ModeVideoOnline
}

// IsInPerson reports whether the mode is an in-person consultation
// (face-to-face or home visit).
func (m Mode) IsInPerson() bool {
	return m == ModeFaceToFace || m == ModeHomeVisit
}

// StaffType is the healthcare professional type delivering the
// appointment.
type StaffType string

// StaffType values, spelled exactly as in the extracts.
const (
	StaffGP      StaffType = "GP"
	StaffOther   StaffType = "Other Practice staff"
	StaffUnknown StaffType = "Unknown"
)

// StaffTypes lists all StaffType values in stable order.
func StaffTypes() []StaffType {
	return []StaffType{StaffGP, StaffOther, StaffUnknown}
}

// ParseStaffType parses an extract cell into a StaffType.
func ParseStaffType(s string) (StaffType, error) {
	switch StaffType(s) {
	case StaffGP, StaffOther, StaffUnknown:
		return StaffType(s), nil
	}
	return "", fmt.Errorf("unknown staff type %q", s)
}

// Interval is the booking-to-appointment interval bucket.
type Interval string

// Interval values, spelled exactly as in the extracts.
const (
	IntervalSameDay     Interval = "Same Day"
	IntervalOneDay      Interval = "1 Day"
	Interval2To7Days    Interval = "2 to 7 Days"
	Interval8To14Days   Interval = "8 to 14 Days"
	Interval15To21Days  Interval = "15 to 21 Days"
	Interval22To28Days  Interval = "22 to 28 Days"
	IntervalOver28Days  Interval = "More than 28 Days"
	IntervalUnknownData Interval = "Unknown / Data Issue"
)

// Intervals lists all Interval values in stable order.
func Intervals() []Interval {
	return []Interval{
		IntervalSameDay, IntervalOneDay, Interval2To7Days, Interval8To14Days,
		Interval15To21Days, Interval22To28Days, IntervalOver28Days, IntervalUnknownData,
	}
}

// KnownIntervals lists the Interval values with a resolved booking
// gap, in ascending order, excluding the unknown bucket.
func KnownIntervals() []Interval {
	return []Interval{
		IntervalSameDay, IntervalOneDay, Interval2To7Days, Interval8To14Days,
		Interval15To21Days, Interval22To28Days, IntervalOver28Days,
	}
}

// ParseInterval parses an extract cell into an Interval.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case IntervalSameDay, IntervalOneDay, Interval2To7Days, Interval8To14Days,
		Interval15To21Days, Interval22To28Days, IntervalOver28Days, IntervalUnknownData:
		return Interval(s), nil
	}
	return "", fmt.Errorf("unknown booking interval %q", s)
}

// Count is an appointment count that may be absent in the source
// extract. Aggregation contexts treat an absent count as zero;
// missing-data analysis keeps the distinction.
type Count struct {
	Value int64
	Valid bool
}

// NewCount returns a present count.
func NewCount(v int64) Count {
	return Count{Value: v, Valid: true}
}

// OrZero returns the count value, treating an absent count as zero.
// This is the aggregation-context reading of a missing count.
func (c Count) OrZero() int64 {
	if !c.Valid {
		return 0
	}
	return c.Value
}

// SumCounts sums counts in an aggregation context: absent counts
// contribute zero. The null-propagating reading is never wanted when
// summing appointment volumes, only when averaging ratios.
func SumCounts(counts []Count) int64 {
	var total int64
	for _, c := range counts {
		total += c.OrZero()
	}
	return total
}

// AppointmentRecord is one row of the unioned appointment table: the
// count of appointments for one (region, period, staff type, status,
// mode, booking interval) cell. Records are immutable after load.
type AppointmentRecord struct {
	Region   RegionKey     `json:"region"`
	Period   period.Period `json:"period"`
	Staff    StaffType     `json:"staff_type"`
	Status   Status        `json:"status"`
	Mode     Mode          `json:"mode"`
	Interval Interval      `json:"booking_interval"`
	Count    Count         `json:"count"`
}
