package core

// Body carries the physical constants of the central body. Everything
// that needs them takes a Body value explicitly, so tests and exotic
// scenarios can swap the defaults out.
type Body struct {
	Name     string
	RadiusKm float64
	// MuKm3S2 is the gravitational parameter GM in km^3/s^2.
	MuKm3S2 float64
	// J2 is the second zonal harmonic. It only enters the
	// sun-synchronous inclination closed form; propagation itself stays
	// on the ideal two-body model.
	J2 float64
}

// Earth is the default central body.
var Earth = Body{
	Name:     "Earth",
	RadiusKm: 6371.0,
	MuKm3S2:  398600.4418,
	J2:       1.08262668e-3,
}
