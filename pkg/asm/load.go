package asm

import (
	"emu16/pkg/isa"
	"emu16/pkg/utils"
)

// LoadProgram assembles the file at path. Locations come from defsPath, or
// when it is empty from the definitions file found beside the source or in
// the working directory; with neither the table is empty.
func LoadProgram(path, defsPath string) ([]isa.Instruction, Labels, error) {
	if defsPath == "" {
		found, err := utils.FindDefinitions(path)
		if err != nil {
			return nil, nil, &ErrSourceIO{Path: path, Err: err}
		}
		defsPath = found
	}

	locs := Locations{}
	if defsPath != "" {
		var err error
		locs, err = LoadLocationsFile(defsPath)
		if err != nil {
			return nil, nil, err
		}
	}

	return AssembleFile(path, locs)
}
