package controllers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"portfolio/database"
	"portfolio/models"
	"portfolio/utils"
)

// ProfileHandler returns everything the landing page renders in one call.
func ProfileHandler(w http.ResponseWriter, r *http.Request) {
	db := database.DB

	person, err := models.GetPerson(db)
	if err != nil {
		log.Printf("[Content] person lookup failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load profile",
		})
		return
	}

	about, err := models.GetAbout(db)
	if err != nil {
		log.Printf("[Content] about lookup failed: %v", err)
	}
	work, err := models.ExperiencesByType(db, models.ExperienceWork)
	if err != nil {
		log.Printf("[Content] work lookup failed: %v", err)
	}
	orgs, err := models.ExperiencesByType(db, models.ExperienceOrganization)
	if err != nil {
		log.Printf("[Content] organizations lookup failed: %v", err)
	}
	education, err := models.EducationList(db)
	if err != nil {
		log.Printf("[Content] education lookup failed: %v", err)
	}
	skills, err := models.SkillList(db)
	if err != nil {
		log.Printf("[Content] skills lookup failed: %v", err)
	}
	certifications, err := models.CertificationList(db)
	if err != nil {
		log.Printf("[Content] certifications lookup failed: %v", err)
	}
	socialLinks, err := models.SocialLinkList(db)
	if err != nil {
		log.Printf("[Content] social links lookup failed: %v", err)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Profile",
		Data: map[string]any{
			"person":         person,
			"about":          about,
			"work":           work,
			"organizations":  orgs,
			"education":      education,
			"skills":         skills,
			"certifications": certifications,
			"social_links":   socialLinks,
		},
	})
}

// PostsHandler lists visible blog posts, newest first.
func PostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := models.VisiblePosts(database.DB)
	if err != nil {
		log.Printf("[Content] posts lookup failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load posts",
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Posts",
		Data:    posts,
	})
}

// PostHandler returns one visible post by slug.
func PostHandler(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	post, err := models.PostBySlug(database.DB, slug)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Post not found",
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Post",
		Data:    post,
	})
}

// ProjectsHandler lists visible projects in display order.
func ProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := models.VisibleProjects(database.DB)
	if err != nil {
		log.Printf("[Content] projects lookup failed: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load projects",
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Projects",
		Data:    projects,
	})
}

// ProjectHandler returns one visible project by slug.
func ProjectHandler(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	project, err := models.ProjectBySlug(database.DB, slug)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Project not found",
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Project",
		Data:    project,
	})
}
