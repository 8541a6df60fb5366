package content

import "time"

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// DefaultLibrary returns the portal's built-in content.
func DefaultLibrary() *Library {
	return NewLibrary(defaultResources(), defaultRecords(), defaultTreatments())
}

func defaultResources() []Resource {
	return []Resource{
		{ID: "1", Title: "Proper Brushing Techniques", Description: "Learn the correct way to brush your teeth for optimal dental health.",
			Type: "article", URL: "#", Category: CategoryGeneral, Tags: []string{"brushing", "oral hygiene", "basics"}},
		{ID: "2", Title: "The Importance of Flossing", Description: "Why flossing is crucial for preventing gum disease and maintaining healthy teeth.",
			Type: "article", URL: "#", Category: CategoryAdult, Tags: []string{"flossing", "gum health", "prevention"}},
		{ID: "3", Title: "Caring for Your Child's Teeth", Description: "A guide for parents on how to care for children's teeth from infancy through adolescence.",
			Type: "pdf", URL: "#", Category: CategoryChildren, Tags: []string{"children", "parenting", "pediatric"}},
		{ID: "4", Title: "Understanding Tooth Sensitivity", Description: "Causes of tooth sensitivity and how to manage it effectively.",
			Type: "article", URL: "#", Category: CategoryAdult, Tags: []string{"sensitivity", "pain management", "treatment"}},
		{ID: "5", Title: "Fun Brushing Songs for Kids", Description: "Engaging songs to make brushing fun for children.",
			Type: "video", URL: "#", Category: CategoryChildren, Tags: []string{"children", "brushing", "fun"}},
		{ID: "6", Title: "Nutrition and Dental Health", Description: "How your diet affects your teeth and gums.",
			Type: "article", URL: "#", Category: CategoryGeneral, Tags: []string{"nutrition", "diet", "prevention"}},
		{ID: "7", Title: "Post-Extraction Care Guide", Description: "Important instructions for caring for your mouth after a tooth extraction.",
			Type: "pdf", URL: "#", Category: CategoryAdult, Tags: []string{"extraction", "aftercare", "recovery"}},
		{ID: "8", Title: "Braces Care Instructions", Description: "How to properly care for braces to ensure effective treatment.",
			Type: "video", URL: "#", Category: CategoryGeneral, Tags: []string{"braces", "orthodontics", "care"}},
	}
}

func defaultRecords() []Record {
	return []Record{
		{
			ID: "1", Date: day(2025, time.May, 10), Type: "Regular Checkup", Dentist: "Dr. Sarah Johnson",
			Notes: "Patient's teeth are in good condition. Recommended regular flossing to maintain gum health.",
			Attachments: []Attachment{
				{Name: "X-Ray Results.pdf", URL: "#"},
				{Name: "Treatment Plan.pdf", URL: "#"},
			},
		},
		{
			ID: "2", Date: day(2025, time.February, 15), Type: "Cavity Filling", Dentist: "Dr. Michael Chen",
			Notes:       "Filled cavity on lower right molar. Patient tolerated procedure well. No complications.",
			Attachments: []Attachment{{Name: "Procedure Details.pdf", URL: "#"}},
		},
		{
			ID: "3", Date: day(2024, time.November, 5), Type: "Teeth Cleaning", Dentist: "Dr. Emily Rodriguez",
			Notes: "Routine cleaning performed. Slight plaque buildup on lower incisors. Advised patient on proper brushing techniques.",
		},
	}
}

func defaultTreatments() []Treatment {
	return []Treatment{
		{
			ID: "1", Date: day(2025, time.May, 10), Procedure: "Dental Cleaning", Dentist: "Dr. Sarah Johnson",
			Description: "Regular cleaning and fluoride treatment",
			CareInstructions: []string{
				"Avoid eating or drinking for 30 minutes after fluoride treatment",
				"Continue regular brushing and flossing",
				"Use fluoride toothpaste",
			},
		},
		{
			ID: "2", Date: day(2025, time.February, 15), Procedure: "Cavity Filling", Dentist: "Dr. Michael Chen",
			Description: "Composite filling on lower right molar (tooth #30)",
			FollowUp:    "No immediate follow-up needed. Regular checkup in 6 months.",
			CareInstructions: []string{
				"Avoid chewing on the filled tooth for 24 hours",
				"If you experience pain lasting more than 24 hours, contact our office",
				"Avoid very hot or cold foods for the first few days",
			},
		},
		{
			ID: "3", Date: day(2024, time.November, 5), Procedure: "Root Canal", Dentist: "Dr. James Wilson",
			Description: "Root canal treatment on upper left premolar (tooth #12)",
			FollowUp:    "Return in 2 weeks for crown placement",
			CareInstructions: []string{
				"Take prescribed antibiotics as directed",
				"Use over-the-counter pain medication as needed",
				"Avoid chewing on the treated tooth until the permanent crown is placed",
				"Call our office if you experience severe pain or swelling",
			},
		},
	}
}
