// Package assembly tracks placed part instances and the joints bonding their
// connection points. A Manager owns the assembly state and drives a
// physics.Backend; it is not safe for concurrent use.
package assembly

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danielgardiner81/MotoRouge/pkg/connect"
	"github.com/danielgardiner81/MotoRouge/pkg/geom"
	"github.com/danielgardiner81/MotoRouge/pkg/part"
	"github.com/danielgardiner81/MotoRouge/pkg/physics"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithJointConfig overrides the ball-socket spring and damper.
func WithJointConfig(cfg connect.JointConfig) Option {
	return func(m *Manager) { m.joint = cfg }
}

// WithIDGenerator replaces the random instance id source.
func WithIDGenerator(gen func() InstanceID) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// Manager is the assembly state machine.
type Manager struct {
	backend physics.Backend
	log     *zap.Logger
	joint   connect.JointConfig
	newID   func() InstanceID

	state     State
	instances map[InstanceID]*Instance
	order     []InstanceID
	bonds     map[PointRef]*Bond // both ends of a bond share one *Bond
}

// New returns an empty manager driving backend.
func New(backend physics.Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:   backend,
		log:       zap.NewNop(),
		joint:     connect.DefaultJointConfig(),
		newID:     NewInstanceID,
		instances: make(map[InstanceID]*Instance),
		bonds:     make(map[PointRef]*Bond),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// AddPart places a copy of def at pose and creates its physics body.
func (m *Manager) AddPart(def *part.Definition, pose geom.Pose) (InstanceID, error) {
	if def == nil {
		return "", fmt.Errorf("add part: %w: nil definition", ErrInvalidDefinition)
	}
	if errs := part.Errors(part.Validate(def)); len(errs) > 0 {
		return "", fmt.Errorf("add part %q: %w: %v", def.Name, ErrInvalidDefinition, errs[0])
	}

	def = def.Clone()
	body, err := m.backend.CreateBody(physics.BodySpecFor(def.Name, def, pose))
	if err != nil {
		return "", fmt.Errorf("add part %q: create body: %w", def.Name, err)
	}

	id := m.newID()
	m.instances[id] = &Instance{
		ID:        id,
		Name:      def.Name,
		Def:       def,
		Pose:      pose,
		Body:      body,
		connected: make(map[string]PointRef),
	}
	m.order = append(m.order, id)
	m.state = Building

	m.log.Debug("part added",
		zap.String("instance", string(id)),
		zap.String("part", def.Name),
		zap.Stringer("pose", pose))
	return id, nil
}

func (m *Manager) resolve(ref PointRef) (*Instance, *part.ConnectionPoint, error) {
	in, ok := m.instances[ref.Instance]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPart, ref.Instance)
	}
	p := in.Def.Point(ref.Point)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: %q on %s", ErrUnknownConnectionPoint, ref.Point, in.Name)
	}
	return in, p, nil
}

// Connect bonds point idA of instance a to point idB of instance b, then
// moves b so the two points meet with opposing directions. On any error
// the assembly is left unchanged.
func (m *Manager) Connect(a InstanceID, idA string, b InstanceID, idB string) error {
	refA := PointRef{Instance: a, Point: idA}
	refB := PointRef{Instance: b, Point: idB}
	reject := func(err error) error {
		m.log.Warn("connection rejected",
			zap.Stringer("a", refA),
			zap.Stringer("b", refB),
			zap.Error(err))
		return &ConnectError{A: refA, B: refB, Err: err}
	}

	instA, pointA, err := m.resolve(refA)
	if err != nil {
		return reject(err)
	}
	instB, pointB, err := m.resolve(refB)
	if err != nil {
		return reject(err)
	}
	if a == b {
		return reject(ErrSelfConnection)
	}
	for _, ref := range []PointRef{refA, refB} {
		if _, bonded := m.bonds[ref]; bonded {
			return reject(fmt.Errorf("%w: %s", ErrPointAlreadyBonded, ref))
		}
	}
	if !connect.CanConnect(pointA, pointB) {
		return reject(fmt.Errorf("%w: %s cannot drive %s", ErrIncompatibleConnection, pointA.Type, pointB.Type))
	}

	// The backend pins joints at the bodies' current relative pose, so B is
	// moved first and put back if the joint cannot be made.
	aligned := connect.Align(instA.Pose, pointA, instB.Pose, pointB)
	if err := m.backend.SetPose(instB.Body, aligned); err != nil {
		return reject(fmt.Errorf("move %s: %w", instB.Name, err))
	}
	spec := connect.Synthesize(pointA, pointB, m.joint)
	joint, err := physics.Materialize(m.backend, instA.Body, instB.Body, spec)
	if err != nil {
		if rerr := m.backend.SetPose(instB.Body, instB.Pose); rerr != nil {
			m.log.Error("restore pose failed", zap.String("instance", string(b)), zap.Error(rerr))
		}
		return reject(fmt.Errorf("create %s joint: %w", spec.Type, err))
	}

	bond := &Bond{A: refA, B: refB, Joint: joint, Spec: spec}
	m.bonds[refA] = bond
	m.bonds[refB] = bond
	instA.connected[idA] = refB
	instB.connected[idB] = refA
	instB.Pose = aligned

	m.log.Info("connected",
		zap.Stringer("a", refA),
		zap.Stringer("b", refB),
		zap.Stringer("joint", spec.Type))
	return nil
}

// Disconnect removes the joint at the given point, from either end.
func (m *Manager) Disconnect(inst InstanceID, point string) error {
	ref := PointRef{Instance: inst, Point: point}
	bond, ok := m.bonds[ref]
	if !ok {
		return fmt.Errorf("disconnect %s: %w", ref, ErrPointNotBonded)
	}
	if err := m.backend.RemoveJoint(bond.Joint); err != nil {
		return fmt.Errorf("disconnect %s: %w", ref, err)
	}

	delete(m.bonds, bond.A)
	delete(m.bonds, bond.B)
	if in, ok := m.instances[bond.A.Instance]; ok {
		delete(in.connected, bond.A.Point)
	}
	if in, ok := m.instances[bond.B.Instance]; ok {
		delete(in.connected, bond.B.Point)
	}

	m.log.Info("disconnected", zap.Stringer("a", bond.A), zap.Stringer("b", bond.B))
	return nil
}

// Reset destroys every joint and instance and returns to Empty. Backend
// failures are logged; the assembly is emptied regardless.
func (m *Manager) Reset() {
	if m.state == Empty && len(m.instances) == 0 {
		return
	}
	for _, bond := range m.Bonds() {
		if err := m.backend.RemoveJoint(bond.Joint); err != nil && !errors.Is(err, physics.ErrUnknownJoint) {
			m.log.Warn("remove joint failed", zap.Stringer("a", bond.A), zap.Error(err))
		}
	}
	for _, id := range m.order {
		if err := m.backend.RemoveBody(m.instances[id].Body); err != nil {
			m.log.Warn("remove body failed", zap.String("instance", string(id)), zap.Error(err))
		}
	}

	n := len(m.instances)
	m.instances = make(map[InstanceID]*Instance)
	m.bonds = make(map[PointRef]*Bond)
	m.order = nil
	m.state = Empty
	m.log.Info("assembly reset", zap.Int("instances", n))
}

// Instance returns a copy of the placed part with the given id.
func (m *Manager) Instance(id InstanceID) (Instance, bool) {
	in, ok := m.instances[id]
	if !ok {
		return Instance{}, false
	}
	return in.snapshot(), true
}

// Instances returns copies of all placed parts in placement order.
func (m *Manager) Instances() []Instance {
	return lo.Map(m.order, func(id InstanceID, _ int) Instance {
		return m.instances[id].snapshot()
	})
}

func (in *Instance) snapshot() Instance {
	cp := *in
	cp.connected = lo.Assign(in.connected)
	return cp
}

// AssemblyState returns a copy of the point-to-point bond map. Every bond
// appears under both of its ends.
func (m *Manager) AssemblyState() map[PointRef]PointRef {
	out := make(map[PointRef]PointRef, len(m.bonds))
	for ref, bond := range m.bonds {
		if ref == bond.A {
			out[ref] = bond.B
		} else {
			out[ref] = bond.A
		}
	}
	return out
}

// Bonds returns each bond once, ordered by the A end.
func (m *Manager) Bonds() []Bond {
	unique := lo.Uniq(lo.Values(m.bonds))
	out := lo.Map(unique, func(b *Bond, _ int) Bond { return *b })
	sort.Slice(out, func(i, j int) bool {
		if out[i].A.Instance != out[j].A.Instance {
			return out[i].A.Instance < out[j].A.Instance
		}
		return out[i].A.Point < out[j].A.Point
	})
	return out
}

// Bonded reports whether a point is part of a bond.
func (m *Manager) Bonded(ref PointRef) bool {
	_, ok := m.bonds[ref]
	return ok
}

// Markers returns the world-space marker of every connection point, in
// placement order. Bonded points take the bonded colour.
func (m *Manager) Markers() []Marker {
	var out []Marker
	for _, id := range m.order {
		in := m.instances[id]
		for i := range in.Def.Points {
			p := &in.Def.Points[i]
			ref := PointRef{Instance: id, Point: p.ID}
			w := connect.Resolve(in.Pose, p)
			mk := Marker{
				Ref:       ref,
				Type:      p.Type,
				Position:  w.Position,
				Direction: w.Direction,
				Radius:    p.Radius,
				Color:     connect.ColorFor(p.Type),
				Bonded:    m.Bonded(ref),
			}
			if mk.Bonded {
				mk.Color = connect.ColorBonded
			}
			out = append(out, mk)
		}
	}
	return out
}
