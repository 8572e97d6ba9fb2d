package s3client

import (
	"errors"
	"strings"
)

// ValidateBucketName checks the bucket name against S3 naming rules:
// 3 to 63 lowercase letters, digits, hyphens and dots, starting and ending
// with a letter or digit.
func ValidateBucketName(bucketName string) error {
	if len(bucketName) < 3 || len(bucketName) > 63 {
		return errors.New("bucket name must be between 3 and 63 characters")
	}
	if strings.Contains(bucketName, " ") {
		return errors.New("bucket name cannot contain spaces")
	}
	if !isDNSCompatible(bucketName) {
		return errors.New("bucket name must be DNS compliant")
	}
	if strings.Contains(bucketName, "..") {
		return errors.New("bucket name cannot contain consecutive dots")
	}
	return nil
}

func isDNSCompatible(name string) bool {
	for i, char := range name {
		alnum := (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')
		if i == 0 || i == len(name)-1 {
			if !alnum {
				return false
			}
			continue
		}
		if !alnum && char != '-' && char != '.' {
			return false
		}
	}
	return true
}
