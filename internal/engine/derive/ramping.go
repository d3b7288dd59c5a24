package derive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"timscompare/internal/engine/format"
	"timscompare/internal/engine/model"
)

var errLengthMismatch = errors.New("Mismatch in lengths of advanced ramping lists.")

func (c *Calculator) ceRamping(p model.Params) model.Outcome {
	if active, _ := p.ScalarOf(model.RampingAdvancedActive); active == "1" {
		return c.advancedRamping(p)
	}

	ce := p.Get(model.RampingCollisionPair)
	mob := p.Get(model.RampingMobilityPair)
	ceDef := c.definition(model.RampingCollisionPair)
	mobDef := c.definition(model.RampingMobilityPair)

	start, end := model.NotAvailable, model.NotAvailable
	ceItems, ceOK := ce.List()
	mobItems, mobOK := mob.List()
	complete := ceOK && mobOK && len(ceItems) >= 2 && len(mobItems) >= 2
	if complete {
		start = format.Scalar(model.RampingCollisionPair, ceDef, ceItems[0]) + " @ " +
			format.Scalar(model.RampingMobilityPair, mobDef, mobItems[0])
		end = format.Scalar(model.RampingCollisionPair, ceDef, ceItems[1]) + " @ " +
			format.Scalar(model.RampingMobilityPair, mobDef, mobItems[1])
	}
	p.SetScalar(model.CalcCERampingStart, start)
	p.SetScalar(model.CalcCERampingEnd, end)

	switch {
	case complete:
		return model.Applied(model.FamilyCERamping)
	case ce.IsAbsent() && mob.IsAbsent():
		return model.NotApplicable(model.FamilyCERamping, "no ramping parameters")
	default:
		return model.Unavailable(model.FamilyCERamping, "incomplete collision energy or mobility pair")
	}
}

func (c *Calculator) advancedRamping(p model.Params) model.Outcome {
	p.SetScalar(model.CalcCERampingStart, model.NotAvailable)
	p.SetScalar(model.CalcCERampingEnd, model.NotAvailable)

	mobRaw := items(p.Get(model.AdvancedMobilityList))
	ceRaw := items(p.Get(model.AdvancedEnergyList))
	if len(mobRaw) == 0 || len(ceRaw) == 0 {
		c.logger.Warn("advanced ramping skipped, missing mobility or energy lists")
		p.Set(model.CalcAdvancedCERamp, model.List([]string{"No advanced values found"}))
		return model.Unavailable(model.FamilyCERamping, "no advanced values found")
	}

	lines, err := advancedLines(mobRaw, ceRaw, items(p.Get(model.AdvancedEntryTypeList)))
	if err != nil {
		c.logger.Error("failed to parse advanced ramping values", "error", err)
		p.Set(model.CalcAdvancedCERamp, model.List([]string{"Error parsing advanced values: " + err.Error()}))
		return model.Unavailable(model.FamilyCERamping, err.Error())
	}
	p.Set(model.CalcAdvancedCERamp, model.List(lines))
	return model.Applied(model.FamilyCERamping)
}

func advancedLines(mobRaw, ceRaw, typeRaw []string) ([]string, error) {
	mobility, err := floats(mobRaw)
	if err != nil {
		return nil, err
	}
	energy, err := floats(ceRaw)
	if err != nil {
		return nil, err
	}
	types := make([]int, len(mobility))
	if len(typeRaw) > 0 {
		types = types[:0]
		for _, s := range typeRaw {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("invalid entry type %q", s)
			}
			types = append(types, n)
		}
	}
	if len(mobility) != len(energy) || len(mobility) != len(types) {
		return nil, errLengthMismatch
	}

	lines := make([]string, 0, len(mobility))
	for i := range mobility {
		lines = append(lines, fmt.Sprintf("%s %.2f eV @ %.2f", entryType(types[i]), energy[i], mobility[i]))
	}
	return lines, nil
}

func entryType(code int) string {
	switch code {
	case 0:
		return "base"
	case 1:
		return "fixed"
	default:
		return strconv.Itoa(code)
	}
}

var steppingVectors = []struct {
	label string
	name  model.Name
}{
	{label: "Collision RF", name: model.SteppingCollisionRF},
	{label: "Transfer Time", name: model.SteppingTransferTime},
	{label: "Pre-Pulse Storage", name: model.SteppingPrePulseStore},
}

func (c *Calculator) stepping(p model.Params) model.Outcome {
	if active, _ := p.ScalarOf(model.SteppingActive); active != "1" {
		return model.NotApplicable(model.FamilyStepping, "stepping inactive")
	}

	var details []string
	for i, name := range []model.Name{model.RampingCollisionPair, model.RampingCollisionStep2} {
		pair, ok := p.Get(name).List()
		if !ok || len(pair) != 2 {
			continue
		}
		vals, err := floats(pair)
		if err != nil {
			continue
		}
		details = append(details, fmt.Sprintf("CE (Scan #%d): %.1f - %.1f eV", i+1, vals[0], vals[1]))
	}

	for _, vec := range steppingVectors {
		values, ok := p.Get(vec.name).List()
		if !ok {
			continue
		}
		unit := ""
		if def := c.definition(vec.name); def != nil && def.Unit != "" {
			unit = " " + def.Unit
		}
		for i, raw := range values {
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				continue
			}
			details = append(details, fmt.Sprintf("%s (Scan #%d): %.1f%s", vec.label, i+1, f, unit))
		}
	}

	if len(details) == 0 {
		return model.Unavailable(model.FamilyStepping, "no stepping values")
	}
	p.Set(model.CalcSteppingList, model.List(details))
	return model.Applied(model.FamilyStepping)
}
