// Package matrix expands a job's matrix axes into the ordered cross
// product of job instances. Expansion order is lexicographic over the
// declared axis order and each axis's declared value order, so instance
// identity and log output are reproducible run to run.
package matrix

import (
	"github.com/vk/flowgridgo/internal/model"
)

// Expand computes the Cartesian product of the job's matrix axes. A job
// without a matrix expands to exactly one empty assignment. An axis with
// zero values is a configuration error (the loader rejects it too; this
// guards direct library use).
func Expand(job *model.JobSpec) ([]model.Assignment, error) {
	if len(job.Matrix) == 0 {
		return []model.Assignment{nil}, nil
	}

	total := 1
	for _, axis := range job.Matrix {
		if len(axis.Values) == 0 {
			return nil, &model.ConfigError{Job: job.Name, Field: "matrix." + axis.Name, Reason: "matrix axis has no values"}
		}
		total *= len(axis.Values)
	}

	assignments := make([]model.Assignment, 0, total)
	indices := make([]int, len(job.Matrix))
	for {
		assignment := make(model.Assignment, len(job.Matrix))
		for i, axis := range job.Matrix {
			assignment[i] = model.AxisValue{Axis: axis.Name, Value: axis.Values[indices[i]]}
		}
		assignments = append(assignments, assignment)

		// Advance like an odometer, last axis fastest.
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(job.Matrix[pos].Values) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return assignments, nil
		}
	}
}

// Instances expands a job directly into job instances.
func Instances(job *model.JobSpec) ([]*model.JobInstance, error) {
	assignments, err := Expand(job)
	if err != nil {
		return nil, err
	}
	instances := make([]*model.JobInstance, 0, len(assignments))
	for _, a := range assignments {
		instances = append(instances, &model.JobInstance{Spec: job, Assignment: a})
	}
	return instances, nil
}
