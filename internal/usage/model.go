package usage

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details"`
}

type DoctorReport struct {
	Checks []DoctorCheck `json:"checks"`
}
