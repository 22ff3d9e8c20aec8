package sampledata

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Year bounds accepted by Validate.
const (
	minYear = 1970
	maxYear = 2100
)

// Noise applied to generated rows.
const (
	badDateRate   = 0.002
	slashDateRate = 0.05
	blankCellRate = 0.01
	noiseSpread   = 0.12
)

// Shape of the generated curves.
const (
	seasonalAmplitude = 0.15
	yearlyGrowth      = 0.08
	campaignLift      = 1.35
	referenceYear     = 2000
)
