// Package lifecycle assembles computed vital rates into population
// projection matrices and analyzes them.
//
// A Topology is the fixed structure of one life cycle: the stage count
// and the set of structurally nonzero (row, col) cells, each carrying
// the algebraic formula that combines named vital rates into the cell
// value. The structure never changes at runtime; cells outside the
// declared set are exactly zero in every assembled matrix.
//
// Three concrete topologies observed in practice ship with the package:
//
//   - AgeStructuredFemale — 5-stage single-sex female model: one
//     juvenile class, four adult age classes, terminal plus-group.
//   - TwoSexJuvenileAdult — juvenile/adult × sex with sex-specific
//     survival and a shared fertility pathway.
//   - ThreeStageBreeder — immature/philopatric/breeder with maturation
//     and direct-to-breeder recruitment pathways.
//
// Assemble builds a fresh Matrix for every rate set; matrices are never
// mutated in place. The analyzer methods on Matrix compute the dominant
// eigenvalue (lambda), stable stage distribution, reproductive values,
// and the one-step transient growth ratio for an observed stage vector.
//
// Eigen-decomposition is delegated to gonum; a matrix whose dominant
// eigenvalue is not a unique positive real (reducible or periodic in a
// way that breaks ergodicity) surfaces ErrNonErgodic for that matrix
// only, so batch sweeps can skip and continue.
package lifecycle
