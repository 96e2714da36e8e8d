package i18n

import "golang.org/x/text/language"

var translations = map[language.Tag]map[string]string{
	language.French: {
		"Home":                               "Accueil",
		"Login":                              "Connexion",
		"Logout":                             "Déconnexion",
		"My account":                         "Mon compte",
		"Create account":                     "Créer un compte",
		"Inventory":                          "Inventaire",
		"Hyperlinks":                         "Hyperliens",
		"Users":                              "Utilisateurs",
		"Groups":                             "Groupes",
		"Regions":                            "Régions",
		"Server":                             "Serveur",
		"Console":                            "Console",
		"Terms of service":                   "Conditions d'utilisation",
		"Forgot password?":                   "Mot de passe oublié ?",
		"Your changes have been saved.":      "Vos modifications ont été enregistrées.",
		"The action could not be performed.": "L'action n'a pas pu être effectuée.",
		"You are not allowed to do that.":    "Vous n'êtes pas autorisé à faire cela.",

		"The password does not meet the requirements.": "Le mot de passe ne respecte pas les règles.",

		"Pending":                            "En attente",
		"Administrator":                      "Administrateur",
		"Never":                              "Jamais",
		"User":                               "Utilisateur",
		"Online":                             "En ligne",
		"Offline":                            "Hors ligne",
		"%d users online":                    "%d utilisateurs en ligne",
		"Password recovery for %s":           "Récupération du mot de passe pour %s",
		"Your account on %s":                 "Votre compte sur %s",
	},
	language.Spanish: {
		"Home":                               "Inicio",
		"Login":                              "Entrar",
		"Logout":                             "Salir",
		"My account":                         "Mi cuenta",
		"Create account":                     "Crear cuenta",
		"Inventory":                          "Inventario",
		"Hyperlinks":                         "Hiperenlaces",
		"Users":                              "Usuarios",
		"Groups":                             "Grupos",
		"Regions":                            "Regiones",
		"Server":                             "Servidor",
		"Console":                            "Consola",
		"Terms of service":                   "Términos de servicio",
		"Forgot password?":                   "¿Olvidó su contraseña?",
		"Your changes have been saved.":      "Sus cambios han sido guardados.",
		"The action could not be performed.": "No se pudo realizar la acción.",
		"You are not allowed to do that.":    "No tiene permiso para hacer eso.",

		"The password does not meet the requirements.": "La contraseña no cumple los requisitos.",

		"Pending":                            "Pendiente",
		"Administrator":                      "Administrador",
		"Never":                              "Nunca",
		"User":                               "Usuario",
		"Online":                             "En línea",
		"Offline":                            "Desconectado",
		"%d users online":                    "%d usuarios en línea",
		"Password recovery for %s":           "Recuperación de contraseña para %s",
		"Your account on %s":                 "Su cuenta en %s",
	},
	language.Portuguese: {
		"Home":                               "Início",
		"Login":                              "Entrar",
		"Logout":                             "Sair",
		"My account":                         "A minha conta",
		"Create account":                     "Criar conta",
		"Inventory":                          "Inventário",
		"Hyperlinks":                         "Hiperligações",
		"Users":                              "Utilizadores",
		"Groups":                             "Grupos",
		"Regions":                            "Regiões",
		"Server":                             "Servidor",
		"Console":                            "Consola",
		"Terms of service":                   "Termos de serviço",
		"Forgot password?":                   "Esqueceu a palavra-passe?",
		"Your changes have been saved.":      "As suas alterações foram guardadas.",
		"The action could not be performed.": "Não foi possível realizar a ação.",
		"You are not allowed to do that.":    "Não tem permissão para isso.",

		"The password does not meet the requirements.": "A palavra-passe não cumpre os requisitos.",

		"Pending":                            "Pendente",
		"Administrator":                      "Administrador",
		"Never":                              "Nunca",
		"User":                               "Utilizador",
		"Online":                             "Online",
		"Offline":                            "Offline",
		"%d users online":                    "%d utilizadores online",
		"Password recovery for %s":           "Recuperação da palavra-passe para %s",
		"Your account on %s":                 "A sua conta em %s",
	},
	language.German: {
		"Home":                               "Startseite",
		"Login":                              "Anmelden",
		"Logout":                             "Abmelden",
		"My account":                         "Mein Konto",
		"Create account":                     "Konto erstellen",
		"Inventory":                          "Inventar",
		"Hyperlinks":                         "Hyperlinks",
		"Users":                              "Benutzer",
		"Groups":                             "Gruppen",
		"Regions":                            "Regionen",
		"Server":                             "Server",
		"Console":                            "Konsole",
		"Terms of service":                   "Nutzungsbedingungen",
		"Forgot password?":                   "Passwort vergessen?",
		"Your changes have been saved.":      "Ihre Änderungen wurden gespeichert.",
		"The action could not be performed.": "Die Aktion konnte nicht ausgeführt werden.",
		"You are not allowed to do that.":    "Dazu sind Sie nicht berechtigt.",

		"The password does not meet the requirements.": "Das Passwort erfüllt die Anforderungen nicht.",

		"Pending":                            "Ausstehend",
		"Administrator":                      "Administrator",
		"Never":                              "Nie",
		"User":                               "Benutzer",
		"Online":                             "Online",
		"Offline":                            "Offline",
		"%d users online":                    "%d Benutzer online",
		"Password recovery for %s":           "Passwort-Wiederherstellung für %s",
		"Your account on %s":                 "Ihr Konto bei %s",
	},
}
