// Package models defines shared data types for the hiring pipeline.
package models
