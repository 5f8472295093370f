// Package jobstream reads and writes job descriptors as streams. Decode
// lazily turns a multi-document YAML stream into transforms.Jobs, one job
// per document; Encode drains a job sequence into YAML documents separated
// by "---" markers or into JSON lines.
package jobstream
