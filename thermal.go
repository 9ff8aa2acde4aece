package linethermal

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/brpaterson/linethermal/internal/rootfind"
)

// Stefan-Boltzmann constant, W/(m^2 K^4).
const stefanBoltzmann = 5.670374419e-8

// Air properties evaluated at a reference film temperature and treated
// as locally linear around it, per the CIGRE TB-601 convective
// correlation's usual engineering simplification (full use would need a
// temperature-dependent property table; spec.md §4.3 asks only for
// Reynolds/Nusselt built from density, dynamic viscosity and thermal
// conductivity "at film temperature").
const (
	airDensityAt20C           = 1.225    // kg/m^3
	airDynamicViscosityAt20C  = 1.825e-5 // Pa*s
	airThermalConductAt20C    = 0.02585  // W/(m*K)
	airPropertyTempCoeffRho   = -0.0034  // fractional change in rho per °C above 20
	airPropertyTempCoeffMu    = 0.0025   // fractional change in mu per °C above 20
	airPropertyTempCoeffLambd = 0.0028   // fractional change in lambda per °C above 20
)

// ThermalModel implements the CIGRE TB-601 steady-state heat balance for
// a single conductor type. It is stateless after construction — every
// exported method takes its full ambient state as arguments — so one
// instance is safely reused and called concurrently from many
// goroutines, which Monte Carlo propagation relies on.
type ThermalModel struct {
	Conductor ConductorParameters
}

// NewThermalModel validates the conductor parameters and returns a
// ready-to-use model, or a ConfigError if the parameters violate the
// invariants in spec.md §3.
func NewThermalModel(c ConductorParameters) (*ThermalModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &ThermalModel{Conductor: c}, nil
}

// AmbientState is the input to one thermal balance evaluation.
type AmbientState struct {
	CurrentA  float64 // conductor current, A
	TaC       float64 // ambient air temperature, °C
	QsWm2     float64 // effective solar irradiance on the conductor, W/m²
	WindMS    float64 // wind speed, m/s
	AttackDeg float64 // wind-to-conductor attack angle δ, [0,90]
}

// SteadyStateTemp solves P_J + P_S = P_c + P_r for the conductor
// temperature T_c via Brent's method bracketed over [T_a, T_a+200°C],
// per spec.md §4.3. Returns ErrSolver if the interval fails to bracket
// a root (e.g. a current high enough that heating still exceeds cooling
// at T_a+200°C) or the root finder does not converge.
func (m *ThermalModel) SteadyStateTemp(a AmbientState) (float64, error) {
	balance := func(tc float64) float64 {
		return m.jouleHeat(a.CurrentA, tc) + m.solarHeat(a.QsWm2) -
			m.convectiveCooling(a.WindMS, a.AttackDeg, a.TaC, tc) -
			m.radiativeCooling(a.TaC, tc)
	}

	tc, err := rootfind.Brent(balance, a.TaC, a.TaC+200, rootfind.Settings{Tolerance: 1e-3})
	if err != nil {
		return 0, wrap(ErrSolver, "thermal balance failed to bracket: %v", err)
	}
	return tc, nil
}

// Balance evaluates the signed heat-balance residual P_J+P_S-P_c-P_r at
// a candidate temperature; exposed for the energy-balance property test.
func (m *ThermalModel) Balance(a AmbientState, tc float64) float64 {
	return m.jouleHeat(a.CurrentA, tc) + m.solarHeat(a.QsWm2) -
		m.convectiveCooling(a.WindMS, a.AttackDeg, a.TaC, tc) -
		m.radiativeCooling(a.TaC, tc)
}

// Sensitivity estimates dT_c/dI at the ambient state's operating current
// by finite-differencing the steady-state solve, an optional per-result
// diagnostic alongside ampacity inversion (spec.md §4.5).
func (m *ThermalModel) Sensitivity(a AmbientState) (float64, error) {
	if _, err := m.SteadyStateTemp(a); err != nil {
		return 0, err
	}

	f := func(current float64) float64 {
		b := a
		b.CurrentA = current
		tc, err := m.SteadyStateTemp(b)
		if err != nil {
			return math.NaN()
		}
		return tc
	}

	deriv := fd.Derivative(f, a.CurrentA, nil)
	if !isFiniteF(deriv) {
		return 0, wrap(ErrNumeric, "sensitivity derivative is non-finite")
	}
	return deriv, nil
}

func (m *ThermalModel) jouleHeat(current, tc float64) float64 {
	return current * current * m.Conductor.ResistanceAt(tc)
}

// solarHeat implements spec.md's default solar term: Q_s is assumed to
// already represent effective radiation on the conductor and sin(β)=1,
// so P_S = α * D * Q_s.
func (m *ThermalModel) solarHeat(qs float64) float64 {
	if qs < 0 {
		qs = 0
	}
	return m.Conductor.Absorptivity * m.Conductor.DiameterM * qs
}

// convectiveCooling implements the CIGRE TB-601 film correlation: Reynolds
// and Nusselt numbers from air properties evaluated at the film
// temperature, a wind-attack-angle correction K(δ), and natural
// convection as a floor when wind is negligible.
func (m *ThermalModel) convectiveCooling(windMS, attackDeg, taC, tc float64) float64 {
	d := m.Conductor.DiameterM
	tf := (tc + taC) / 2

	rho := airDensityAt20C * (1 + airPropertyTempCoeffRho*(tf-20))
	mu := airDynamicViscosityAt20C * (1 + airPropertyTempCoeffMu*(tf-20))
	lambdaF := airThermalConductAt20C * (1 + airPropertyTempCoeffLambd*(tf-20))
	if rho < 0 {
		rho = 0
	}
	if mu <= 0 {
		mu = airDynamicViscosityAt20C
	}

	re := rho * windMS * d / mu
	nuForced := 0.65 * math.Pow(re, 0.2) // low-Re CIGRE correlation branch
	if re > 1000 {
		nuForced = 0.23 * math.Pow(re, 0.61)
	}

	k := attackAngleFactor(attackDeg)

	gr := natGrashof(d, taC, tc)
	pr := 0.71 // Prandtl number of air, effectively constant over this range
	nuNatural := 0.48 * math.Pow(gr*pr, 0.25)

	nu := math.Max(nuForced*k, nuNatural)

	hc := nu * lambdaF / d
	return math.Pi * d * hc * (tc - taC)
}

// attackAngleFactor is the CIGRE TB-601 wind-incidence correction K(δ):
// 1 at perpendicular incidence (δ=90°), falling off toward parallel flow.
func attackAngleFactor(attackDeg float64) float64 {
	rad := attackDeg * math.Pi / 180
	return 1.194 - math.Cos(rad) + 0.194*math.Cos(2*rad) + 0.368*math.Sin(2*rad)
}

// natGrashof computes the Grashof number for natural convection around
// a horizontal cylinder at film conditions.
func natGrashof(d, taC, tc float64) float64 {
	const g = 9.80665
	const beta = 1.0 / 293.15 // thermal expansion coefficient of air, 1/K, at ~20°C
	const nu = 1.5e-5         // kinematic viscosity of air, m^2/s

	dt := tc - taC
	if dt < 0 {
		dt = 0
	}
	gr := g * beta * dt * d * d * d / (nu * nu)
	if gr < 0 {
		gr = 0
	}
	return gr
}

func (m *ThermalModel) radiativeCooling(taC, tc float64) float64 {
	d := m.Conductor.DiameterM
	eps := m.Conductor.Emissivity
	tck := tc + 273.15
	tak := taC + 273.15
	return math.Pi * d * eps * stefanBoltzmann * (tck*tck*tck*tck - tak*tak*tak*tak)
}
