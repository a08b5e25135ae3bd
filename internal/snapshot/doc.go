/*
Package snapshot loads PhysiCell MultiCellDS output folders.

A folder holds one outputNNNNNNNN.xml file per saved time point. Each XML
file names the MATLAB v4 matrices that carry the per-agent data
(*_cells.mat, one column per agent, one row per label component) and the
microenvironment (*_microenvironment0.mat, one column per voxel, rows x, y,
z, volume followed by one row per substrate).

Load parses a single snapshot; LoadTable flattens every snapshot of a
folder into one simulation table with a leading "time" column.
*/
package snapshot
