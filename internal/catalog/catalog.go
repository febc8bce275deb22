// Package catalog holds the EASA Part 66 module syllabus and a starter deck.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/part66/internal/domain"
	"github.com/conorfennell/part66/internal/knol"
	"github.com/conorfennell/part66/internal/parser"
	"github.com/conorfennell/part66/internal/storage"
)

//go:embed starter.md
var starterDeck []byte

const (
	categoryBasic  = "Basic Knowledge"
	categorySystem = "Systems"
)

type topic struct{ number, title string }

func module(number, title, description, category string, topics ...topic) domain.Module {
	m := domain.Module{
		ID:          domain.ModuleID(number),
		Number:      number,
		Title:       title,
		Description: description,
		Category:    category,
	}
	for _, t := range topics {
		m.SubModules = append(m.SubModules, domain.SubModule{
			ID:       domain.SubModuleID(t.number),
			ModuleID: m.ID,
			Number:   t.number,
			Title:    t.title,
		})
	}
	return m
}

// Modules returns the syllabus in order.
func Modules() []domain.Module {
	return []domain.Module{
		module("1", "Mathematics", "Arithmetic, algebra, geometry and basic trigonometry.", categoryBasic,
			topic{"1.1", "Arithmetic"}, topic{"1.2", "Algebra"}, topic{"1.3", "Geometry"}, topic{"1.4", "Trigonometry"}),
		module("2", "Physics", "Matter, mechanics, thermodynamics, optics and wave motion.", categoryBasic,
			topic{"2.1", "Matter"}, topic{"2.2", "Mechanics"}, topic{"2.3", "Thermodynamics"},
			topic{"2.4", "Optics (Light)"}, topic{"2.5", "Wave Motion and Sound"}),
		module("3", "Basic Electricity", "Electron theory, static electricity, electrical terminology, and electrical hazards.", categoryBasic,
			topic{"3.1", "Electron Theory"}, topic{"3.2", "Static Electricity"}, topic{"3.3", "Electrical Terminology"},
			topic{"3.4", "DC Circuits"}, topic{"3.5", "Resistors"}, topic{"3.6", "Capacitors"}, topic{"3.7", "Inductors"}),
		module("4", "Basic Electronics", "Semiconductors, printed circuit boards, and electronic instruments.", categoryBasic,
			topic{"4.1", "Semiconductors"}, topic{"4.2", "Transistors"}, topic{"4.3", "Integrated Circuits"},
			topic{"4.4", "Printed Circuit Boards"}, topic{"4.5", "Servomechanisms"}, topic{"4.6", "Electronic Instruments"}),
		module("5", "Digital Techniques Electronic Instrument Systems", "Numbering systems, data buses, logic circuits and electronic displays.", categoryBasic,
			topic{"5.1", "Electronic Instrument Systems"}, topic{"5.2", "Numbering Systems"}, topic{"5.3", "Data Conversion"},
			topic{"5.4", "Data Buses"}, topic{"5.5", "Logic Circuits"}, topic{"5.6", "Basic Computer Structure"}),
		module("6", "Materials and Hardware", "Aircraft materials, corrosion, fasteners, pipes, springs and bearings.", categoryBasic,
			topic{"6.1", "Aircraft Materials - Ferrous"}, topic{"6.2", "Aircraft Materials - Non-Ferrous"},
			topic{"6.3", "Aircraft Materials - Composite and Non-Metallic"}, topic{"6.4", "Corrosion"}, topic{"6.5", "Fasteners"}),
		module("7A", "Maintenance Practices", "Safety precautions, workshop practices, tools and maintenance procedures.", categoryBasic,
			topic{"7A.1", "Safety Precautions"}, topic{"7A.2", "Workshop Practices"}, topic{"7A.3", "Tools"},
			topic{"7A.4", "Avionic General Test Equipment"}, topic{"7A.5", "Engineering Drawings"}),
		module("8", "Basic Aerodynamics", "Physics of the atmosphere, aerodynamics, and flight stability and dynamics.", categoryBasic,
			topic{"8.1", "Physics of the Atmosphere"}, topic{"8.2", "Aerodynamics"}, topic{"8.3", "Flight Stability"}, topic{"8.4", "Flight Dynamics"}),
		module("9A", "Human Factors", "Human performance, social psychology, communication and human error.", categoryBasic,
			topic{"9A.1", "General"}, topic{"9A.2", "Human Performance and Limitations"}, topic{"9A.3", "Social Psychology"},
			topic{"9A.4", "Factors Affecting Performance"}, topic{"9A.5", "Physical Environment"}, topic{"9A.6", "Tasks"},
			topic{"9A.7", "Communication"}, topic{"9A.8", "Human Error"}, topic{"9A.9", "Hazards in the Workplace"}),
		module("10", "Aviation Legislation", "Regulatory framework, certifying staff and continuing airworthiness.", categoryBasic,
			topic{"10.1", "Regulatory Framework"}, topic{"10.2", "Certifying Staff - Maintenance"},
			topic{"10.3", "Approved Maintenance Organisations"}, topic{"10.4", "Air Operations"},
			topic{"10.5", "Certification of Aircraft, Parts and Appliances"}, topic{"10.6", "Continuing Airworthiness"}),
		module("11A", "Turbine Aeroplane Aerodynamics, Structures and Systems", "Airframe structures and systems of turbine aeroplanes.", categorySystem,
			topic{"11A.1", "Theory of Flight"}, topic{"11A.2", "Airframe Structures - General Concepts"},
			topic{"11A.9", "Flight Controls"}, topic{"11A.11", "Hydraulic Power"}, topic{"11A.13", "Landing Gear"}),
		module("11B", "Piston Aeroplane Aerodynamics, Structures and Systems", "Airframe structures and systems of piston aeroplanes.", categorySystem,
			topic{"11B.1", "Theory of Flight"}, topic{"11B.2", "Airframe Structures - General Concepts"}, topic{"11B.9", "Flight Controls"}),
		module("12", "Helicopter Aerodynamics, Structures and Systems", "Rotor theory, flight control systems and helicopter structures.", categorySystem,
			topic{"12.1", "Theory of Flight - Rotary Wing Aerodynamics"}, topic{"12.2", "Flight Control Systems"},
			topic{"12.3", "Blade Tracking and Vibration Analysis"}, topic{"12.4", "Transmissions"}),
		module("13", "Aircraft Aerodynamics, Structures and Systems", "Avionic systems of aircraft for B2 licence holders.", categorySystem,
			topic{"13.1", "Theory of Flight"}, topic{"13.2", "Structures - General Concepts"}, topic{"13.3", "Autoflight"},
			topic{"13.4", "Communication/Navigation"}, topic{"13.5", "Electrical Power"}),
		module("14", "Propulsion", "Turbine and piston engine instrument and control systems.", categorySystem,
			topic{"14.1", "Engines"}, topic{"14.2", "Electric/Electronic Engine Indication Systems"}),
		module("15", "Gas Turbine Engine", "Engine fundamentals, performance, compressors, turbines and engine systems.", categorySystem,
			topic{"15.1", "Fundamentals"}, topic{"15.2", "Engine Performance"}, topic{"15.3", "Inlet"},
			topic{"15.4", "Compressors"}, topic{"15.5", "Combustion Section"}, topic{"15.6", "Turbine Section"}),
		module("16", "Piston Engine", "Piston engine fundamentals, construction, fuel and ignition systems.", categorySystem,
			topic{"16.1", "Fundamentals"}, topic{"16.2", "Engine Performance"}, topic{"16.3", "Engine Construction"},
			topic{"16.4", "Engine Fuel Systems"}, topic{"16.5", "Starting and Ignition Systems"}),
		module("17A", "Propeller", "Propeller fundamentals, construction, pitch control and maintenance.", categorySystem,
			topic{"17A.1", "Fundamentals"}, topic{"17A.2", "Propeller Construction"}, topic{"17A.3", "Propeller Pitch Control"},
			topic{"17A.4", "Propeller Synchronising"}, topic{"17A.5", "Propeller Ice Protection"}, topic{"17A.6", "Propeller Maintenance"}),
	}
}

// StarterCards returns the built-in deck bundled with the binary.
func StarterCards() ([]domain.Card, error) {
	cards, err := parser.Parse(bytes.NewReader(starterDeck))
	if err != nil {
		return nil, fmt.Errorf("failed to parse starter deck: %w", err)
	}
	for i := range cards {
		cards[i].ID = knol.ID(cards[i])
		cards[i].Approved = true
	}
	return cards, nil
}

// Seed writes the syllabus and inserts starter cards that are not stored yet.
// It is safe to run on every start.
func Seed(ctx context.Context, db *storage.DB, logger *slog.Logger, now time.Time) error {
	modules := Modules()
	for i, m := range modules {
		if err := db.UpsertModule(ctx, m, i+1); err != nil {
			return err
		}
	}

	cards, err := StarterCards()
	if err != nil {
		return err
	}
	inserted := 0
	for i, card := range cards {
		existing, err := db.FindCard(ctx, card.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		// Spread creation times so the deck keeps its authored order.
		card.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		card.UpdatedAt = card.CreatedAt
		if err := db.InsertCard(ctx, card); err != nil {
			return err
		}
		inserted++
	}
	logger.Info("catalog seeded", "modules", len(modules), "starter_cards", inserted)
	return nil
}
