package params

// Voter scans stop after NPOS_MAX_ITERATIONS_COEFFICIENT * maxAllowed entries
// even when not enough active voters were found.
const NPOS_MAX_ITERATIONS_COEFFICIENT = 2

// Star balancing rounds applied after each solver run.
const DEFAULT_BALANCING_ITERATIONS = 10

// Fixed point denominator used for Phragmen loads (2^128).
const LOAD_DENOMINATOR_BITS = 128

// PhragMMS score accuracy, 10^18.
const PHRAGMMS_SCORE_ACCURACY uint64 = 1_000_000_000_000_000_000

const DEFAULT_CONNECTION_TIMEOUT_SECS = 60
const DEFAULT_REQUEST_TIMEOUT_SECS = 60 * 10

var DEFAULT_URI = "http://localhost:8080/graphql"

const DEFAULT_OUTPUT_PATH = "./output.csv"
const DEFAULT_SNAPSHOT_PATH = "./snapshots"
